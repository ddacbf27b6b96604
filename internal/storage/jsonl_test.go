package storage

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"clpool/internal/model"
)

func TestJsonlStorageAppends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "events.jsonl")
	s := NewJsonlStorage(path)

	first := []model.EventRecord{
		{Seq: 0, Kind: model.KindMint, Amount0: "100", Amount1: "200"},
		{Seq: 1, Kind: model.KindSwap, Amount0: "-5", Amount1: "42"},
	}
	if err := s.PutEventBatch(first); err != nil {
		t.Fatalf("first batch: %v", err)
	}
	if err := s.PutEventBatch([]model.EventRecord{{Seq: 2, Kind: model.KindBurn}}); err != nil {
		t.Fatalf("second batch: %v", err)
	}
	if err := s.PutEventBatch(nil); err != nil {
		t.Fatalf("empty batch: %v", err)
	}

	file, err := os.Open(path)
	if err != nil {
		t.Fatalf("open output: %v", err)
	}
	defer file.Close()

	var got []model.EventRecord
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		var record model.EventRecord
		if err := json.Unmarshal(scanner.Bytes(), &record); err != nil {
			t.Fatalf("parse line: %v", err)
		}
		got = append(got, record)
	}
	if err := scanner.Err(); err != nil {
		t.Fatalf("scan: %v", err)
	}

	if len(got) != 3 {
		t.Fatalf("got %d lines, want 3", len(got))
	}
	if got[1].Amount0 != "-5" || got[2].Kind != model.KindBurn {
		t.Fatalf("records out of order or corrupted: %+v", got)
	}
}
