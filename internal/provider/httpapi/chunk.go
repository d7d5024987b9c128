package httpapi

import "time"

type dateRange struct {
	From time.Time
	To   time.Time
}

func splitDateRange(from, to time.Time, chunkDays int) []dateRange {
	if from.After(to) || chunkDays <= 0 {
		return nil
	}

	var chunks []dateRange
	for cur := from; !cur.After(to); cur = cur.AddDate(0, 0, chunkDays) {
		end := cur.AddDate(0, 0, chunkDays-1)
		if end.After(to) {
			end = to
		}
		chunks = append(chunks, dateRange{From: cur, To: end})
	}
	return chunks
}
