package executors

import (
	"strconv"
	"strings"
	"time"

	"reversionbot/src/model"
	"reversionbot/src/position"
)

// positionRow projects the in-memory position state onto its persisted row.
func positionRow(p *position.Position) *model.Position {
	return &model.Position{
		ExternalID:      p.ID,
		Symbol:          p.Symbol,
		Status:          p.Status,
		AvgEntryPrice:   p.AvgEntry,
		Size:            p.Size,
		OriginalSize:    p.OriginalSize,
		StopPrice:       p.Stop,
		HighestPrice:    p.Highest,
		BreakevenArmed:  p.Breakeven,
		DCADone:         p.DCADone,
		ScaleLevelsHit:  encodeLevels(p.LevelsHit),
		RealizedPnl:     p.RealizedPnl,
		OpenedAt:        p.OpenedAt,
		ClosedAt:        p.ClosedAt,
		CloseReason:     p.CloseReason,
		LastTrailUpdate: trailPtr(p.LastTrail),
	}
}

// restorePosition rebuilds the runtime state from a persisted row, used when
// a live run restarts with positions still open. Targets are recomputed by
// the machine config, so only the hit flags persist.
func restorePosition(row *model.Position, levels int, targets func(entry float64) []float64) *position.Position {
	p := &position.Position{
		ID:           row.ExternalID,
		Symbol:       row.Symbol,
		Status:       row.Status,
		AvgEntry:     row.AvgEntryPrice,
		Size:         row.Size,
		OriginalSize: row.OriginalSize,
		Stop:         row.StopPrice,
		Highest:      row.HighestPrice,
		Breakeven:    row.BreakevenArmed,
		DCADone:      row.DCADone,
		LevelsHit:    decodeLevels(row.ScaleLevelsHit, levels),
		RealizedPnl:  row.RealizedPnl,
		OpenedAt:     row.OpenedAt,
		ClosedAt:     row.ClosedAt,
		CloseReason:  row.CloseReason,
	}
	if row.LastTrailUpdate != nil {
		p.LastTrail = *row.LastTrailUpdate
	}
	p.Targets = targets(p.AvgEntry)
	return p
}

// encodeLevels stores the hit flags as comma-joined indices, e.g. "0,1".
func encodeLevels(hit []bool) string {
	var parts []string
	for i, h := range hit {
		if h {
			parts = append(parts, strconv.Itoa(i))
		}
	}
	return strings.Join(parts, ",")
}

func decodeLevels(encoded string, levels int) []bool {
	hit := make([]bool, levels)
	if encoded == "" {
		return hit
	}
	for _, part := range strings.Split(encoded, ",") {
		idx, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil || idx < 0 || idx >= levels {
			continue
		}
		hit[idx] = true
	}
	return hit
}

func trailPtr(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
