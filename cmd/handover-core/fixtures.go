package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/custodia-labs/handover-core/internal/core/domain"
	"github.com/custodia-labs/handover-core/internal/core/ports/driven"
)

var (
	_ driven.DocumentSearcher = (*fixtureSources)(nil)
	_ driven.EmailSearcher    = (*fixtureSources)(nil)
	_ driven.EntityExtractor  = (*fixtureSources)(nil)
)

// fixtureSources serves search hits recorded in files
type fixtureSources struct {
	documents []*domain.DocumentRecord
	emails    []*domain.EmailRecord
	entities  []domain.Entity
}

func (f *fixtureSources) SearchDocuments(_ context.Context, q domain.SearchQuery) ([]*domain.DocumentRecord, error) {
	return limitRecords(f.documents, q.Limit), nil
}

func (f *fixtureSources) SearchEmails(_ context.Context, q domain.SearchQuery) ([]*domain.EmailRecord, error) {
	return limitRecords(f.emails, q.Limit), nil
}

func (f *fixtureSources) Extract(_ context.Context, _ string) ([]domain.Entity, error) {
	return f.entities, nil
}

func limitRecords[T any](records []T, limit int) []T {
	if limit > 0 && len(records) > limit {
		return records[:limit]
	}
	return records
}

// readFixture returns a file as JSON. YAML files are converted.
func readFixture(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		var doc any
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
		data, err = json.Marshal(doc)
		if err != nil {
			return nil, fmt.Errorf("convert %s: %w", path, err)
		}
	}
	return data, nil
}

// decodeList decodes a bare array or the first of keys found in an envelope
func decodeList[T any](data []byte, keys ...string) ([]T, error) {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '[' {
		var list []T
		err := json.Unmarshal(data, &list)
		return list, err
	}

	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(data, &envelope); err != nil {
		return nil, err
	}
	for _, key := range keys {
		raw, ok := envelope[key]
		if !ok || string(raw) == "null" {
			continue
		}
		return decodeList[T](raw, keys...)
	}
	return []T{}, nil
}

func loadDocuments(path string) ([]*domain.DocumentRecord, error) {
	data, err := readFixture(path)
	if err != nil {
		return nil, err
	}
	return decodeList[*domain.DocumentRecord](data, "results", "documents")
}

func loadEmails(path string) ([]*domain.EmailRecord, error) {
	data, err := readFixture(path)
	if err != nil {
		return nil, err
	}
	return decodeList[*domain.EmailRecord](data, "emails", "value")
}

// loadEntities accepts a bare list, {entities: [...]} or the extraction
// service response {entities: {merged: [...]}}
func loadEntities(path string) ([]domain.Entity, error) {
	data, err := readFixture(path)
	if err != nil {
		return nil, err
	}
	return decodeList[domain.Entity](data, "entities", "merged")
}
