package cache

import (
	"sort"
	"strconv"
	"time"

	"mt5-market-hub/src/helpers"
	"mt5-market-hub/src/models"

	"github.com/tidwall/gjson"
)

// -----------------------------------------------------------------------------
// Bar document codec
//
// The bar series key is written by several producers over time and the value
// shape drifted with them: columnar arrays {"time":[...],"open":[...]},
// index-keyed columns {"close":{"0":...,"1":...}} and plain record lists all
// exist in the wild. The parser accepts all three; anything else is
// ErrCacheMalformed.
// -----------------------------------------------------------------------------

func ParseBarsDocument(data []byte) ([]models.MOHLCBar, error) {
	if len(data) == 0 || !gjson.ValidBytes(data) {
		return nil, helpers.ErrCacheMalformed
	}

	root := gjson.ParseBytes(data)

	var bars []models.MOHLCBar
	switch {
	case root.IsArray():
		bars = barsFromRecords(root)
	case root.IsObject():
		bars = barsFromColumns(root)
	default:
		return nil, helpers.ErrCacheMalformed
	}

	bars = normalizeBars(bars)
	if len(bars) == 0 {
		return nil, helpers.ErrCacheMalformed
	}

	return bars, nil
}

// -----------------------------------------------------------------------------

func barsFromRecords(root gjson.Result) []models.MOHLCBar {
	var bars []models.MOHLCBar

	root.ForEach(func(_, rec gjson.Result) bool {
		ts, ok := parseTime(rec.Get("time"))
		if !ok {
			ts, ok = parseTime(rec.Get("timestamp"))
		}
		if !ok {
			return true
		}

		volume := rec.Get("volume")
		if !volume.Exists() {
			volume = rec.Get("tick_volume")
		}

		bars = append(bars, models.MOHLCBar{
			Time:   ts,
			Open:   rec.Get("open").Float(),
			High:   rec.Get("high").Float(),
			Low:    rec.Get("low").Float(),
			Close:  rec.Get("close").Float(),
			Volume: volume.Float(),
		})
		return true
	})

	return bars
}

// -----------------------------------------------------------------------------

func barsFromColumns(root gjson.Result) []models.MOHLCBar {
	timeCol := root.Get("time")
	if !timeCol.Exists() {
		timeCol = root.Get("timestamp")
	}
	closeCol := root.Get("close")
	if !timeCol.Exists() || !closeCol.Exists() {
		return nil
	}

	volumeCol := root.Get("volume")
	if !volumeCol.Exists() {
		volumeCol = root.Get("tick_volume")
	}

	times := columnCells(timeCol)
	opens := columnCells(root.Get("open"))
	highs := columnCells(root.Get("high"))
	lows := columnCells(root.Get("low"))
	closes := columnCells(closeCol)
	volumes := columnCells(volumeCol)

	var bars []models.MOHLCBar
	for i, cell := range times {
		ts, ok := parseTime(cell)
		if !ok || i >= len(closes) {
			continue
		}

		bar := models.MOHLCBar{
			Time:  ts,
			Close: closes[i].Float(),
		}
		if i < len(opens) {
			bar.Open = opens[i].Float()
		}
		if i < len(highs) {
			bar.High = highs[i].Float()
		}
		if i < len(lows) {
			bar.Low = lows[i].Float()
		}
		if i < len(volumes) {
			bar.Volume = volumes[i].Float()
		}
		bars = append(bars, bar)
	}

	return bars
}

// -----------------------------------------------------------------------------

// columnCells flattens a column into index order. Arrays keep their order;
// index-keyed objects are sorted by their integer keys.
func columnCells(col gjson.Result) []gjson.Result {
	if col.IsArray() {
		return col.Array()
	}
	if !col.IsObject() {
		return nil
	}

	type cell struct {
		idx int
		val gjson.Result
	}
	var cells []cell
	col.ForEach(func(key, val gjson.Result) bool {
		idx, err := strconv.Atoi(key.String())
		if err != nil {
			return true
		}
		cells = append(cells, cell{idx: idx, val: val})
		return true
	})

	sort.Slice(cells, func(a, b int) bool { return cells[a].idx < cells[b].idx })

	out := make([]gjson.Result, len(cells))
	for i, c := range cells {
		out[i] = c.val
	}
	return out
}

// -----------------------------------------------------------------------------

var timeLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

// parseTime accepts unix seconds or a handful of timestamp string layouts.
func parseTime(cell gjson.Result) (int64, bool) {
	switch cell.Type {
	case gjson.Number:
		return int64(cell.Float()), true
	case gjson.String:
		for _, layout := range timeLayouts {
			if t, err := time.Parse(layout, cell.String()); err == nil {
				return t.Unix(), true
			}
		}
	}
	return 0, false
}

// -----------------------------------------------------------------------------

// normalizeBars sorts by bucket time, drops invalid bars and duplicate
// buckets (first occurrence wins), leaving a series that satisfies the
// strictly-increasing invariant.
func normalizeBars(bars []models.MOHLCBar) []models.MOHLCBar {
	sort.SliceStable(bars, func(a, b int) bool { return bars[a].Time < bars[b].Time })

	out := bars[:0]
	var lastTime int64 = -1
	for _, b := range bars {
		if !b.Valid() || b.Time == lastTime {
			continue
		}
		out = append(out, b)
		lastTime = b.Time
	}
	return out
}
