package archive

import (
	"context"
	"testing"
	"time"

	"flyhigh/internal/components/telemetry"

	"github.com/stretchr/testify/require"
)

func openMemory(t *testing.T) Archive {
	t.Helper()
	a, err := Open("", telemetry.NewRecorder())
	require.NoError(t, err)
	t.Cleanup(func() { a.Close() })
	return a
}

func date(d int) time.Time {
	return time.Date(2019, time.August, d, 0, 0, 0, 0, time.UTC)
}

func TestPutGet(t *testing.T) {
	ctx := context.Background()
	a := openMemory(t)

	observedAt := time.Date(2019, time.August, 1, 9, 0, 0, 0, time.UTC)
	require.NoError(t, a.Put(ctx, Document{Date: "2019-08-24", ObservedAt: observedAt, Contents: "<html></html>"}))

	doc, err := a.Get(ctx, "2019-08-24", observedAt)
	require.NoError(t, err)
	require.Equal(t, "<html></html>", doc.Contents)
	require.True(t, doc.ObservedAt.Equal(observedAt))
	require.False(t, doc.Ingested)

	_, err = a.Get(ctx, "2019-08-25", observedAt)
	require.ErrorIs(t, err, ErrDocumentNotFound)

	require.NoError(t, a.MarkIngested(ctx, "2019-08-24", observedAt))
	doc, err = a.Get(ctx, "2019-08-24", observedAt)
	require.NoError(t, err)
	require.True(t, doc.Ingested)

	require.ErrorIs(t, a.MarkIngested(ctx, "2019-08-25", observedAt), ErrDocumentNotFound)
}

func TestList(t *testing.T) {
	ctx := context.Background()
	a := openMemory(t)

	first := time.Date(2019, time.August, 1, 9, 0, 0, 0, time.UTC)
	second := first.Add(time.Hour)
	for _, doc := range []Document{
		{Date: "2019-08-25", ObservedAt: first, Contents: "25@9"},
		{Date: "2019-08-24", ObservedAt: second, Contents: "24@10"},
		{Date: "2019-08-24", ObservedAt: first, Contents: "24@9"},
		{Date: "2019-08-26", ObservedAt: first, Contents: "26@9", Ingested: true},
	} {
		require.NoError(t, a.Put(ctx, doc))
	}

	contents := func(docs []Document) []string {
		var out []string
		for _, d := range docs {
			out = append(out, d.Contents)
		}
		return out
	}

	docs, err := a.List(ctx, time.Time{}, time.Time{}, false)
	require.NoError(t, err)
	require.Equal(t, []string{"24@9", "24@10", "25@9"}, contents(docs))

	docs, err = a.List(ctx, time.Time{}, time.Time{}, true)
	require.NoError(t, err)
	require.Equal(t, []string{"24@9", "24@10", "25@9", "26@9"}, contents(docs))

	docs, err = a.List(ctx, date(25), date(26), true)
	require.NoError(t, err)
	require.Equal(t, []string{"25@9", "26@9"}, contents(docs))

	docs, err = a.List(ctx, date(24), date(24), false)
	require.NoError(t, err)
	require.Equal(t, []string{"24@9", "24@10"}, contents(docs))

	docs, err = a.List(ctx, date(27), time.Time{}, true)
	require.NoError(t, err)
	require.Empty(t, docs)
}

func TestPersistent(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	observedAt := time.Date(2019, time.August, 1, 9, 0, 0, 0, time.UTC)

	a, err := Open(dir, telemetry.NewRecorder())
	require.NoError(t, err)
	require.NoError(t, a.Put(ctx, Document{Date: "2019-08-24", ObservedAt: observedAt, Contents: "kept"}))
	require.NoError(t, a.Close())

	a, err = Open(dir, telemetry.NewRecorder())
	require.NoError(t, err)
	defer a.Close()
	doc, err := a.Get(ctx, "2019-08-24", observedAt)
	require.NoError(t, err)
	require.Equal(t, "kept", doc.Contents)
}
