package archive

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/klauspost/compress/gzip"
)

type fakeUploader struct {
	keys [][]byte
	last string
}

func (f *fakeUploader) Upload(ctx context.Context, key string, body *bytes.Reader) error {
	data, err := io.ReadAll(body)
	if err != nil {
		return err
	}
	f.keys = append(f.keys, data)
	f.last = key
	return nil
}

func TestWriteBatchProducesGzippedNDJSON(t *testing.T) {
	dir := t.TempDir()
	a := &Archiver{dir: dir}

	trades := []tradeDoc{
		{MatchNumber: 1, Ticker: "AAPL", Price: 150.5, Shares: 10, ExecutedAt: time.Now()},
		{MatchNumber: 2, Ticker: "AAPL", Price: 151.0, Shares: 5, ExecutedAt: time.Now()},
	}

	path, err := a.writeBatch("2026/01/02", trades)
	if err != nil {
		t.Fatalf("writeBatch error: %v", err)
	}
	if filepath.Base(path) != "02.jsonl.gz" {
		t.Fatalf("unexpected path: %s", path)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read archive: %v", err)
	}
	gz, err := gzip.NewReader(bytes.NewReader(raw))
	if err != nil {
		t.Fatalf("gzip.NewReader: %v", err)
	}
	defer gz.Close()
	out, err := io.ReadAll(gz)
	if err != nil {
		t.Fatalf("gzip read: %v", err)
	}
	if n := bytes.Count(out, []byte("\n")); n != 2 {
		t.Fatalf("NDJSON line count = %d, want 2", n)
	}
}

func TestUploadBatchSendsStagedFileToUploader(t *testing.T) {
	dir := t.TempDir()
	up := &fakeUploader{}
	a := &Archiver{dir: dir, uploader: up, s3Prefix: "feedsim"}

	path, err := a.writeBatch("2026/01/02", []tradeDoc{{MatchNumber: 1, ExecutedAt: time.Now()}})
	if err != nil {
		t.Fatalf("writeBatch error: %v", err)
	}
	if err := a.uploadBatch(context.Background(), "2026/01/02", path); err != nil {
		t.Fatalf("uploadBatch error: %v", err)
	}
	if up.last != "feedsim/trades/2026/01/02.jsonl.gz" {
		t.Fatalf("upload key = %q, want feedsim/trades/2026/01/02.jsonl.gz", up.last)
	}
	if len(up.keys) != 1 {
		t.Fatalf("expected exactly one upload, got %d", len(up.keys))
	}
}

func TestRotateRemovesOldestFilesUntilUnderLimit(t *testing.T) {
	dir := t.TempDir()
	a := &Archiver{dir: dir, maxBytes: 10}

	for _, day := range []string{"2026/01/01", "2026/01/02", "2026/01/03"} {
		if _, err := a.writeBatch(day, []tradeDoc{{MatchNumber: 1, ExecutedAt: time.Now()}}); err != nil {
			t.Fatalf("writeBatch(%s): %v", day, err)
		}
	}

	a.rotate()

	remaining := 0
	filepath.Walk(filepath.Join(dir, "trades"), func(path string, info os.FileInfo, err error) error {
		if err == nil && !info.IsDir() {
			remaining++
		}
		return nil
	})
	if remaining == 0 {
		t.Fatalf("rotate removed every file, expected at least the newest kept")
	}
	if _, err := os.Stat(filepath.Join(dir, "trades", "2026/01/01.jsonl.gz")); !os.IsNotExist(err) {
		t.Fatalf("oldest archive should have been rotated out")
	}
}
