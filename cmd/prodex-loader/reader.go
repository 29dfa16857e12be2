package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/parquet-go/parquet-go"

	"github.com/kailas-cloud/prodex/internal/domain/product"
)

// productRow is one catalog row as laid out in the parquet export.
// Specifications travel as a JSON object string.
type productRow struct {
	ID             string   `parquet:"id"`
	Name           string   `parquet:"name"`
	Brand          string   `parquet:"brand,optional"`
	Category       string   `parquet:"category,optional"`
	Subcategory    string   `parquet:"subcategory,optional"`
	Description    string   `parquet:"description,optional"`
	Features       []string `parquet:"features,list"`
	Specifications string   `parquet:"specifications,optional"`
	Price          float64  `parquet:"price"`
	OriginalPrice  float64  `parquet:"original_price,optional"`
	Currency       string   `parquet:"currency,optional"`
	Rating         float64  `parquet:"rating,optional"`
	ReviewCount    int64    `parquet:"review_count,optional"`
	Availability   string   `parquet:"availability,optional"`
	Source         string   `parquet:"source,optional"`
	SourceURL      string   `parquet:"source_url,optional"`
	Tags           []string `parquet:"tags,list"`
}

// toAttributes converts a raw row into product attributes.
func (r *productRow) toAttributes() (product.Attributes, error) {
	attrs := product.Attributes{
		Name:          r.Name,
		Brand:         r.Brand,
		Category:      r.Category,
		Subcategory:   r.Subcategory,
		Description:   r.Description,
		Features:      r.Features,
		Price:         r.Price,
		OriginalPrice: r.OriginalPrice,
		Currency:      r.Currency,
		Rating:        r.Rating,
		ReviewCount:   int(r.ReviewCount),
		Availability:  r.Availability,
		Source:        r.Source,
		SourceURL:     r.SourceURL,
		Tags:          r.Tags,
	}
	if r.Specifications != "" {
		if err := json.Unmarshal([]byte(r.Specifications), &attrs.Specifications); err != nil {
			return product.Attributes{}, fmt.Errorf("specifications: %w", err)
		}
	}
	return attrs, nil
}

// parquetReader streams product rows from every *.parquet file in a
// directory, in file-name order, with row-level skip for resume.
type parquetReader struct {
	files []string
}

func newParquetReader(dataDir string) (*parquetReader, error) {
	files, err := filepath.Glob(filepath.Join(dataDir, "*.parquet"))
	if err != nil {
		return nil, fmt.Errorf("glob parquet files: %w", err)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no parquet files found in %s", dataDir)
	}
	sort.Strings(files)
	return &parquetReader{files: files}, nil
}

// rowCallback receives each row with its file index and the offset of the
// next row in that file. Returning false stops reading.
type rowCallback func(row *productRow, fileIndex, nextOffset int) bool

// ReadProducts reads from fileIndex/rowOffset onwards. maxRows=0 means no limit.
func (r *parquetReader) ReadProducts(fileIndex, rowOffset, maxRows int, cb rowCallback) error {
	remaining := maxRows
	for fi := fileIndex; fi < len(r.files); fi++ {
		skip := 0
		if fi == fileIndex {
			skip = rowOffset
		}
		n, stopped, err := r.readFile(fi, skip, remaining, cb)
		if err != nil {
			return fmt.Errorf("read %s: %w", filepath.Base(r.files[fi]), err)
		}
		if stopped {
			return nil
		}
		if maxRows > 0 {
			remaining -= n
			if remaining <= 0 {
				return nil
			}
		}
	}
	return nil
}

// productColumns holds leaf column indexes, -1 when absent.
type productColumns map[string]int

func resolveColumns(pf *parquet.File) productColumns {
	cols := productColumns{}
	for i, path := range pf.Schema().Columns() {
		if len(path) > 0 {
			cols[path[0]] = i
		}
	}
	return cols
}

func (c productColumns) index(name string) int {
	if i, ok := c[name]; ok {
		return i
	}
	return -1
}

func (r *parquetReader) readFile(fi, skipRows, maxRows int, cb rowCallback) (read int, stopped bool, err error) {
	h, err := openParquet(r.files[fi])
	if err != nil {
		return 0, false, err
	}
	defer h.Close()

	cols := resolveColumns(h.pf)
	if cols.index("id") < 0 || cols.index("name") < 0 {
		return 0, false, fmt.Errorf("id and name columns are required")
	}

	offset := 0
	buf := make([]parquet.Row, 256)
	for _, rg := range h.pf.RowGroups() {
		rgRows := int(rg.NumRows())
		if offset+rgRows <= skipRows {
			offset += rgRows
			continue
		}

		rows := parquet.NewRowGroupReader(rg)
		for {
			cnt, readErr := rows.ReadRows(buf)
			for i := 0; i < cnt; i++ {
				offset++
				if offset <= skipRows {
					continue
				}
				row := rowToProduct(buf[i], cols)
				read++
				if !cb(&row, fi, offset) {
					return read, true, nil
				}
				if maxRows > 0 && read >= maxRows {
					return read, true, nil
				}
			}
			if readErr != nil {
				if errors.Is(readErr, io.EOF) {
					break
				}
				return read, false, fmt.Errorf("read rows: %w", readErr)
			}
		}
	}
	return read, false, nil
}

// rowToProduct extracts a productRow from a generic row by column index.
// A generic reader copes with optional and list columns that a typed
// reconstruct would reject.
func rowToProduct(row parquet.Row, cols productColumns) productRow {
	var p productRow
	strs := map[int]*string{
		cols.index("id"):             &p.ID,
		cols.index("name"):           &p.Name,
		cols.index("brand"):          &p.Brand,
		cols.index("category"):       &p.Category,
		cols.index("subcategory"):    &p.Subcategory,
		cols.index("description"):    &p.Description,
		cols.index("specifications"): &p.Specifications,
		cols.index("currency"):       &p.Currency,
		cols.index("availability"):   &p.Availability,
		cols.index("source"):         &p.Source,
		cols.index("source_url"):     &p.SourceURL,
	}
	nums := map[int]*float64{
		cols.index("price"):          &p.Price,
		cols.index("original_price"): &p.OriginalPrice,
		cols.index("rating"):         &p.Rating,
	}
	delete(strs, -1)
	delete(nums, -1)

	features, tags, reviews := cols.index("features"), cols.index("tags"), cols.index("review_count")
	for _, v := range row {
		if v.IsNull() {
			continue
		}
		col := v.Column()
		if dst, ok := strs[col]; ok {
			*dst = v.String()
			continue
		}
		if dst, ok := nums[col]; ok {
			*dst = asFloat(v)
			continue
		}
		switch col {
		case features:
			p.Features = append(p.Features, v.String())
		case tags:
			p.Tags = append(p.Tags, v.String())
		case reviews:
			p.ReviewCount = int64(asFloat(v))
		}
	}
	return p
}

func asFloat(v parquet.Value) float64 {
	switch v.Kind() {
	case parquet.Float:
		return float64(v.Float())
	case parquet.Double:
		return v.Double()
	case parquet.Int32:
		return float64(v.Int32())
	case parquet.Int64:
		return float64(v.Int64())
	default:
		return 0
	}
}

// parquetHandle wraps parquet.File and the underlying os.File.
type parquetHandle struct {
	pf   *parquet.File
	file *os.File
}

func (h *parquetHandle) Close() {
	_ = h.file.Close()
}

func openParquet(path string) (*parquetHandle, error) {
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("open: %w", err)
	}
	stat, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("stat: %w", err)
	}
	pf, err := parquet.OpenFile(f, stat.Size())
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("open parquet: %w", err)
	}
	return &parquetHandle{pf: pf, file: f}, nil
}
