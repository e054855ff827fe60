package render

import (
	"fmt"
	"time"
)

// scrollScript returns the JavaScript injected into the rendered page to
// drive infinite-scroll loading: scroll to the bottom, wait for content,
// and stop early when the page height stops growing.
func scrollScript(maxScrolls int, wait time.Duration) string {
	return fmt.Sprintf(`
async function scrollPage() {
    const maxScrolls = %d;
    const waitTime = %d;
    let lastHeight = document.body.scrollHeight;
    let scrollCount = 0;

    while (scrollCount < maxScrolls) {
        window.scrollTo(0, document.body.scrollHeight);
        await new Promise(resolve => setTimeout(resolve, waitTime));

        const newHeight = document.body.scrollHeight;
        if (newHeight === lastHeight) {
            scrollCount += 3;
        } else {
            scrollCount += 1;
        }
        lastHeight = newHeight;
    }

    window.scrollTo(0, document.body.scrollHeight);
    await new Promise(resolve => setTimeout(resolve, waitTime));

    return document.documentElement.outerHTML;
}
scrollPage();
`, maxScrolls, wait.Milliseconds())
}
