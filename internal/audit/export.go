package audit

import (
	"encoding/csv"
	"encoding/json"
	"io"
	"strconv"
	"time"
)

// WriteCSV renders timeline entries as CSV, meta as a JSON column.
func WriteCSV(w io.Writer, entries []Entry) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"at", "actor_id", "actor_email", "action", "entity", "entity_id", "meta"}); err != nil {
		return err
	}
	for _, e := range entries {
		meta := ""
		if len(e.Meta) > 0 {
			raw, err := json.Marshal(e.Meta)
			if err != nil {
				return err
			}
			meta = string(raw)
		}
		record := []string{
			e.At.UTC().Format(time.RFC3339),
			strconv.FormatInt(e.ActorID, 10),
			e.ActorEmail,
			e.Action,
			e.Entity,
			e.EntityID,
			meta,
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
