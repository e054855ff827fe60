package workspace

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mkaradag/newshound/internal/gather"
)

func sampleResult(sessionID string) gather.SessionResult {
	savedAt := time.Date(2025, 6, 17, 12, 0, 0, 0, time.UTC)
	return gather.SessionResult{
		Sources: []gather.SourceRecord{
			{
				SourceDomain:   "news.example.com",
				SourceURL:      "https://news.example.com/front",
				Articles:       []gather.Article{{URL: "https://news.example.com/a", Title: "A", MatchedKeywords: []string{}}},
				ArticlesCount:  1,
				LinksProcessed: 3,
				SavedAt:        savedAt,
			},
			{
				SourceDomain:   "other.example.org",
				SourceURL:      "https://other.example.org",
				Articles:       []gather.Article{},
				LinksProcessed: 1,
				Errors: []gather.ErrorRecord{
					{URL: "https://other.example.org", Kind: gather.KindNetwork, Message: "status 503"},
				},
				SavedAt: savedAt,
			},
		},
		Metadata: gather.SessionMetadata{
			SessionID:           sessionID,
			URLsRequested:       2,
			KeywordsUsed:        []string{"economy"},
			ScrapeDepth:         1,
			PersistMode:         true,
			TotalArticles:       1,
			TotalLinksProcessed: 4,
			CreatedAt:           savedAt,
		},
	}
}

func TestNewRequiresBaseDir(t *testing.T) {
	t.Parallel()

	_, err := New("  ", zap.NewNop())
	require.Error(t, err)
}

func TestPrepareCreatesWorkspace(t *testing.T) {
	t.Parallel()

	store, err := New(t.TempDir(), zap.NewNop())
	require.NoError(t, err)

	path, err := store.Prepare("20250617_120000_000001")
	require.NoError(t, err)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
	assert.Equal(t, "20250617_120000_000001", filepath.Base(path))
}

func TestSnapshotWritesOneFilePerSource(t *testing.T) {
	t.Parallel()

	base := t.TempDir()
	store, err := New(base, zap.NewNop())
	require.NoError(t, err)

	const sessionID = "20250617_120000_000001"
	result := sampleResult(sessionID)
	require.NoError(t, store.Snapshot(context.Background(), result))

	dir := filepath.Join(base, sessionID)
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	names := []string{entries[0].Name(), entries[1].Name()}
	assert.ElementsMatch(t, []string{
		"session_data_news_example_com.json",
		"session_data_other_example_org.json",
	}, names)

	for _, name := range names {
		assert.False(t, strings.HasPrefix(name, ".snapshot-"), "no temp files may survive a snapshot")
	}

	raw, err := os.ReadFile(filepath.Join(dir, "session_data_news_example_com.json"))
	require.NoError(t, err)

	var doc struct {
		SourceDomain string `json:"source_domain"`
		Articles     []struct {
			URL string `json:"url"`
		} `json:"articles"`
		SessionMetadata struct {
			SessionID     string `json:"session_id"`
			URLsRequested int    `json:"urls_requested"`
		} `json:"session_metadata"`
	}
	require.NoError(t, json.Unmarshal(raw, &doc))
	assert.Equal(t, "news.example.com", doc.SourceDomain)
	require.Len(t, doc.Articles, 1)
	assert.Equal(t, "https://news.example.com/a", doc.Articles[0].URL)
	assert.Equal(t, sessionID, doc.SessionMetadata.SessionID)
	assert.Equal(t, 2, doc.SessionMetadata.URLsRequested)
}

func TestSnapshotOverwritesPreviousRun(t *testing.T) {
	t.Parallel()

	base := t.TempDir()
	store, err := New(base, zap.NewNop())
	require.NoError(t, err)

	const sessionID = "20250617_120000_000002"
	result := sampleResult(sessionID)
	require.NoError(t, store.Snapshot(context.Background(), result))

	result.Sources[0].ArticlesCount = 9
	require.NoError(t, store.Snapshot(context.Background(), result))

	raw, err := os.ReadFile(filepath.Join(base, sessionID, "session_data_news_example_com.json"))
	require.NoError(t, err)

	var doc struct {
		ArticlesCount int `json:"articles_count"`
	}
	require.NoError(t, json.Unmarshal(raw, &doc))
	assert.Equal(t, 9, doc.ArticlesCount)
}

func TestSnapshotUnwritableBase(t *testing.T) {
	t.Parallel()

	if os.Geteuid() == 0 {
		t.Skip("directory permissions do not bind root")
	}

	base := t.TempDir()
	require.NoError(t, os.Chmod(base, 0o500))
	t.Cleanup(func() { _ = os.Chmod(base, 0o750) })

	store, err := New(base, zap.NewNop())
	require.NoError(t, err)

	err = store.Snapshot(context.Background(), sampleResult("s1"))
	var storageErr *gather.StorageError
	require.ErrorAs(t, err, &storageErr)
}

func TestSnapshotCanceledContext(t *testing.T) {
	t.Parallel()

	store, err := New(t.TempDir(), zap.NewNop())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err = store.Snapshot(ctx, sampleResult("s2"))
	var storageErr *gather.StorageError
	require.ErrorAs(t, err, &storageErr)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSanitizeDomain(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "example_com", SanitizeDomain("example.com"))
	assert.Equal(t, "news_example_co_uk", SanitizeDomain("news.example.co.uk"))
	assert.Equal(t, "host_8080", SanitizeDomain("host:8080"))
	assert.NotContains(t, SanitizeDomain("weird/../path"), "/")
}
