package extract

import (
	"net/url"
	"strings"

	"golang.org/x/net/html"
)

// CollectLinks walks the HTML tree and returns every a[href] target resolved
// against the page URL. Only http(s) links are kept, fragments are stripped,
// and duplicates are removed while preserving first-seen order.
func CollectLinks(htmlContent string, base *url.URL) []string {
	doc, err := html.Parse(strings.NewReader(htmlContent))
	if err != nil {
		return nil
	}

	var links []string
	seen := make(map[string]struct{})

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "a" {
			if href, ok := hrefAttr(n); ok {
				if resolved, ok := resolveLink(base, href); ok {
					if _, dup := seen[resolved]; !dup {
						seen[resolved] = struct{}{}
						links = append(links, resolved)
					}
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	return links
}

func hrefAttr(n *html.Node) (string, bool) {
	for _, attr := range n.Attr {
		if attr.Key == "href" {
			return strings.TrimSpace(attr.Val), attr.Val != ""
		}
	}
	return "", false
}

func resolveLink(base *url.URL, href string) (string, bool) {
	if href == "" || strings.HasPrefix(href, "#") {
		return "", false
	}
	ref, err := url.Parse(href)
	if err != nil {
		return "", false
	}
	resolved := base.ResolveReference(ref)
	if resolved.Scheme != "http" && resolved.Scheme != "https" {
		return "", false
	}
	resolved.Fragment = ""
	return resolved.String(), true
}
