// Package pointio reads and writes point sets.
package pointio

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/cwbudde/ransacfit/internal/geom"
)

// Load reads points from path, choosing the reader by file extension:
// .json for JSON, .png/.jpg/.jpeg/.gif for images and text otherwise.
func Load(path string, opts ImageOptions) ([]geom.Point, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png", ".jpg", ".jpeg", ".gif":
		return LoadImage(path, opts)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open points: %w", err)
	}
	defer f.Close()

	if strings.EqualFold(filepath.Ext(path), ".json") {
		return ReadJSON(f)
	}
	return ReadText(f)
}

// ReadText parses one point per line with the coordinates separated by
// commas, semicolons or whitespace. Blank lines, lines starting with '#'
// and a non-numeric header line are skipped. Columns beyond the second are
// ignored.
func ReadText(r io.Reader) ([]geom.Point, error) {
	var pts []geom.Point
	sc := bufio.NewScanner(r)
	line, data := 0, 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		fields := strings.FieldsFunc(text, func(r rune) bool {
			return r == ',' || r == ';' || r == ' ' || r == '\t'
		})
		data++
		if len(fields) < 2 {
			if data == 1 {
				continue
			}
			return nil, fmt.Errorf("line %d: expected two coordinates, got %q", line, text)
		}
		x, errX := strconv.ParseFloat(fields[0], 64)
		y, errY := strconv.ParseFloat(fields[1], 64)
		if errX != nil || errY != nil {
			if data == 1 {
				continue
			}
			return nil, fmt.Errorf("line %d: invalid coordinates %q", line, text)
		}
		if !Finite(x, y) {
			return nil, fmt.Errorf("line %d: non-finite coordinates %q", line, text)
		}
		pts = append(pts, geom.Pt(x, y))
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("failed to read points: %w", err)
	}
	return pts, nil
}

// jsonPoint matches keys case-insensitively, so geom.Point values
// encoded as {"X": 1, "Y": 2} are accepted too.
type jsonPoint struct {
	X *float64 `json:"x"`
	Y *float64 `json:"y"`
}

// ReadJSON parses either an array of [x, y] pairs or an array of objects
// with x and y fields.
func ReadJSON(r io.Reader) ([]geom.Point, error) {
	var raw []json.RawMessage
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, fmt.Errorf("failed to decode points: %w", err)
	}

	pts := make([]geom.Point, 0, len(raw))
	for i, msg := range raw {
		var pair []float64
		if err := json.Unmarshal(msg, &pair); err == nil {
			if len(pair) < 2 {
				return nil, fmt.Errorf("point %d: expected two coordinates", i)
			}
			if !Finite(pair[0], pair[1]) {
				return nil, fmt.Errorf("point %d: non-finite coordinates", i)
			}
			pts = append(pts, geom.Pt(pair[0], pair[1]))
			continue
		}

		var jp jsonPoint
		if err := json.Unmarshal(msg, &jp); err != nil {
			return nil, fmt.Errorf("point %d: %w", i, err)
		}
		if jp.X == nil || jp.Y == nil {
			return nil, fmt.Errorf("point %d: missing x or y", i)
		}
		if !Finite(*jp.X, *jp.Y) {
			return nil, fmt.Errorf("point %d: non-finite coordinates", i)
		}
		pts = append(pts, geom.Pt(*jp.X, *jp.Y))
	}
	return pts, nil
}

// Finite reports whether no coordinate is NaN or infinite.
func Finite(coords ...float64) bool {
	for _, c := range coords {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return false
		}
	}
	return true
}

// WriteText writes one "x,y" line per point.
func WriteText(w io.Writer, pts []geom.Point) error {
	bw := bufio.NewWriter(w)
	for _, p := range pts {
		if _, err := fmt.Fprintf(bw, "%s,%s\n",
			strconv.FormatFloat(p.X, 'g', -1, 64),
			strconv.FormatFloat(p.Y, 'g', -1, 64)); err != nil {
			return fmt.Errorf("failed to write points: %w", err)
		}
	}
	return bw.Flush()
}
