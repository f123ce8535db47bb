package board

import (
	"bytes"
	"encoding/json"
	"errors"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/shopspring/decimal"
	"golang.org/x/text/encoding/simplifiedchinese"

	"boardwatch/internal/models"
)

const successPrefix = "success|"

// Row is one positional board row after lenient typing.
type Row struct {
	MarketCode       string
	StockName        string
	StockCode        string
	ListingReason    string
	NetInflow        decimal.Decimal
	BuyerDescription string
	ChangePercent    decimal.Decimal
}

func (r Row) Entry(tradingDate string) models.BoardEntry {
	return models.BoardEntry{
		TradingDate:      tradingDate,
		MarketCode:       r.MarketCode,
		StockName:        r.StockName,
		StockCode:        r.StockCode,
		ListingReason:    r.ListingReason,
		NetInflow:        r.NetInflow,
		BuyerDescription: r.BuyerDescription,
		ChangePercent:    r.ChangePercent,
	}
}

// Entries converts rows for a given trading date.
func Entries(rows []Row, tradingDate string) []models.BoardEntry {
	out := make([]models.BoardEntry, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.Entry(tradingDate))
	}
	return out
}

// Decode turns a raw board API payload into rows.
//
// The result is either a non-empty row slice or one of ErrEmptyResult,
// *UpstreamError or *MalformedResponseError.
func Decode(raw []byte) ([]Row, error) {
	obj, err := parseEnvelope(raw)
	if err != nil {
		return nil, err
	}

	codeRaw := firstRaw(obj, "ErrorCode")
	code, ok := parseIntRaw(codeRaw)
	if !ok {
		return nil, &UpstreamError{Code: -1, Message: "missing ErrorCode"}
	}
	if code != 0 {
		return nil, &UpstreamError{Code: code, Message: stringRaw(firstRaw(obj, "ErrorInfo"))}
	}

	rawRows := rowContainer(obj)
	if len(rawRows) == 0 {
		return nil, ErrEmptyResult
	}

	rows := make([]Row, 0, len(rawRows))
	for _, item := range rawRows {
		row, ok := parseRow(item)
		if !ok {
			continue
		}
		rows = append(rows, row)
	}
	if len(rows) == 0 {
		return nil, ErrEmptyResult
	}
	return rows, nil
}

// Payload returns the JSON object embedded in a raw response, without the success prefix.
func Payload(raw []byte) ([]byte, bool) {
	text := bytes.TrimSpace(toUTF8(raw))
	if rest, found := bytes.CutPrefix(text, []byte(successPrefix)); found {
		rest = bytes.TrimSpace(rest)
		if json.Valid(rest) {
			return rest, true
		}
	}
	if json.Valid(text) {
		return text, true
	}
	return nil, false
}

func parseEnvelope(raw []byte) (map[string]json.RawMessage, error) {
	text := bytes.TrimSpace(toUTF8(raw))
	var obj map[string]json.RawMessage
	if rest, found := bytes.CutPrefix(text, []byte(successPrefix)); found {
		if err := json.Unmarshal(bytes.TrimSpace(rest), &obj); err == nil && obj != nil {
			return obj, nil
		}
	}
	err := json.Unmarshal(text, &obj)
	if err == nil && obj != nil {
		return obj, nil
	}
	if err == nil {
		err = errors.New("payload is not an object")
	}
	return nil, &MalformedResponseError{Snippet: snippet(text), Err: err}
}

// rowContainer resolves tables|ResultSets, then Content|rows inside the first table.
func rowContainer(obj map[string]json.RawMessage) []json.RawMessage {
	var tables []json.RawMessage
	if err := json.Unmarshal(firstRaw(obj, "tables", "ResultSets"), &tables); err != nil || len(tables) == 0 {
		return nil
	}
	var table map[string]json.RawMessage
	if err := json.Unmarshal(tables[0], &table); err != nil {
		return nil
	}
	var rows []json.RawMessage
	if err := json.Unmarshal(firstRaw(table, "Content", "rows"), &rows); err != nil {
		return nil
	}
	return rows
}

func parseRow(item json.RawMessage) (Row, bool) {
	var arr []json.RawMessage
	if err := json.Unmarshal(item, &arr); err != nil || len(arr) < 3 {
		return Row{}, false
	}
	at := func(i int) json.RawMessage {
		if i < len(arr) {
			return arr[i]
		}
		return nil
	}
	// Rows without a code cannot be keyed per date.
	code := stringRaw(at(2))
	if code == "" {
		return Row{}, false
	}
	return Row{
		MarketCode:       stringRaw(at(0)),
		StockName:        stringRaw(at(1)),
		StockCode:        code,
		ListingReason:    stringRaw(at(3)),
		NetInflow:        decimalRaw(at(4)),
		BuyerDescription: stringRaw(at(5)),
		ChangePercent:    decimalRaw(at(6)),
	}, true
}

func firstRaw(m map[string]json.RawMessage, keys ...string) json.RawMessage {
	for _, key := range keys {
		if v, ok := m[key]; ok && len(v) > 0 && string(v) != "null" {
			return v
		}
	}
	return nil
}

// stringRaw accepts a JSON string or number; anything else is empty.
func stringRaw(b json.RawMessage) string {
	if len(b) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		return strings.TrimSpace(s)
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err == nil {
		return n.String()
	}
	return ""
}

// decimalRaw accepts a JSON number or numeric string and coerces everything else to zero.
func decimalRaw(b json.RawMessage) decimal.Decimal {
	s := stringRaw(b)
	if s == "" {
		return decimal.Zero
	}
	s = strings.TrimSuffix(strings.ReplaceAll(s, ",", ""), "%")
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

func parseIntRaw(b json.RawMessage) (int, bool) {
	s := stringRaw(b)
	if s == "" {
		return 0, false
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		f, ferr := strconv.ParseFloat(s, 64)
		if ferr != nil {
			return 0, false
		}
		return int(f), true
	}
	return n, true
}

// toUTF8 transcodes GB18030 bodies; valid UTF-8 passes through untouched.
func toUTF8(raw []byte) []byte {
	raw = bytes.TrimPrefix(raw, []byte("\xef\xbb\xbf"))
	if utf8.Valid(raw) {
		return raw
	}
	out, err := simplifiedchinese.GB18030.NewDecoder().Bytes(raw)
	if err != nil {
		return raw
	}
	return out
}
