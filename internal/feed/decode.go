package feed

import (
	"errors"
	"fmt"

	"gopkg.in/yaml.v3"

	appLog "confdash/internal/log"
	"confdash/internal/model"
)

// DecodeConferences parses the conference document into series records.
// A non-list document is a hard failure for the refresh cycle; malformed
// individual records are logged and skipped, never aborting the batch.
func DecodeConferences(data []byte) ([]model.ConferenceSeries, error) {
	seq, err := sequenceRoot(data)
	if err != nil {
		return nil, fmt.Errorf("conference feed: %w", err)
	}

	out := make([]model.ConferenceSeries, 0, len(seq.Content))
	skipped := 0
	for _, node := range seq.Content {
		var s model.ConferenceSeries
		if err := node.Decode(&s); err != nil {
			appLog.Warn("conference record skipped", "line", node.Line, "reason", err.Error())
			skipped++
			continue
		}
		if !s.Valid() {
			appLog.Warn("conference record skipped", "line", node.Line, "reason", "missing title")
			skipped++
			continue
		}
		out = append(out, s)
	}

	appLog.Info("conference feed decoded", "series", len(out), "skipped", skipped)
	return out, nil
}

// DecodeAcceptances parses the acceptance-rate document, with the same
// skip-bad-records policy as DecodeConferences.
func DecodeAcceptances(data []byte) ([]model.AcceptanceRecord, error) {
	seq, err := sequenceRoot(data)
	if err != nil {
		return nil, fmt.Errorf("acceptance feed: %w", err)
	}

	out := make([]model.AcceptanceRecord, 0, len(seq.Content))
	skipped := 0
	for _, node := range seq.Content {
		var a model.AcceptanceRecord
		if err := node.Decode(&a); err != nil {
			appLog.Warn("acceptance record skipped", "line", node.Line, "reason", err.Error())
			skipped++
			continue
		}
		if !a.Valid() {
			skipped++
			continue
		}
		out = append(out, a)
	}

	appLog.Info("acceptance feed decoded", "records", len(out), "skipped", skipped)
	return out, nil
}

// sequenceRoot parses YAML and requires the document root to be a list.
func sequenceRoot(data []byte) (*yaml.Node, error) {
	if len(data) == 0 {
		return nil, errors.New("empty document")
	}

	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, err
	}
	if len(root.Content) == 0 {
		return nil, errors.New("empty document")
	}
	seq := root.Content[0]
	if seq.Kind != yaml.SequenceNode {
		return nil, errors.New("document root is not a list")
	}
	return seq, nil
}
