package lookup

import (
	"time"

	"github.com/mssola/useragent"

	"3tcapital/phonecheck/internal/core/audit"
	"3tcapital/phonecheck/internal/core/phone"
)

// CheckResponse is returned by a successful phone check.
type CheckResponse struct {
	Record  phone.Record   `json:"record"`
	History []HistoryEntry `json:"history"`
}

// HistoryResponse lists the caller's recent lookups.
type HistoryResponse struct {
	Total   int            `json:"total"`
	Entries []HistoryEntry `json:"entries"`
}

// FieldResponse carries a single provider field.
type FieldResponse struct {
	Number string `json:"number"`
	Field  string `json:"field"`
	Value  string `json:"value"`
}

// HistoryEntry is an audit entry as shown to API clients.
type HistoryEntry struct {
	ID            string         `json:"id"`
	Timestamp     time.Time      `json:"timestamp"`
	Key           phone.Key      `json:"key"`
	Operator      string         `json:"operator"`
	Region        string         `json:"region"`
	Username      string         `json:"username,omitempty"`
	SourceAddress *string        `json:"source_address,omitempty"`
	Device        *DeviceSummary `json:"device,omitempty"`
}

// DeviceSummary is the browser and OS parsed from an agent string.
type DeviceSummary struct {
	Browser        string `json:"browser,omitempty"`
	BrowserVersion string `json:"browser_version,omitempty"`
	OS             string `json:"os,omitempty"`
	Mobile         bool   `json:"mobile"`
	Bot            bool   `json:"bot"`
}

func toHistoryEntries(entries []audit.Entry) []HistoryEntry {
	out := make([]HistoryEntry, 0, len(entries))
	for _, e := range entries {
		item := HistoryEntry{
			ID:            e.ID,
			Timestamp:     e.Timestamp,
			Key:           e.Record.Key,
			Operator:      e.Record.Operator,
			Region:        e.Record.Region,
			SourceAddress: e.SourceAddress,
		}
		if e.Actor != nil {
			item.Username = e.Actor.Username
		}
		if e.AgentString != nil {
			item.Device = summarizeAgent(*e.AgentString)
		}
		out = append(out, item)
	}
	return out
}

func summarizeAgent(agent string) *DeviceSummary {
	if agent == "" {
		return nil
	}
	ua := useragent.New(agent)
	name, version := ua.Browser()
	return &DeviceSummary{
		Browser:        name,
		BrowserVersion: version,
		OS:             ua.OS(),
		Mobile:         ua.Mobile(),
		Bot:            ua.Bot(),
	}
}
