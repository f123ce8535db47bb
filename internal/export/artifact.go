package export

import (
	"encoding/json"
	"time"

	"boardwatch/internal/models"
)

const CrawlTimeLayout = "2006-01-02 15:04:05"

// BoardRow is the exported shape of a board entry. Amounts are written as
// JSON numbers so downstream readers do not have to parse strings.
type BoardRow struct {
	Rank             int         `json:"rank"`
	TradingDate      string      `json:"trading_date"`
	StockCode        string      `json:"stock_code"`
	StockName        string      `json:"stock_name"`
	MarketCode       string      `json:"market_code"`
	ListingReason    string      `json:"listing_reason"`
	NetInflow        json.Number `json:"net_inflow"`
	NetInflowText    string      `json:"net_inflow_text"`
	ChangePercent    json.Number `json:"change_percent"`
	BuyerDescription string      `json:"buyer_description"`
	Buyers           []string    `json:"buyers"`
}

type BoardArtifact struct {
	CrawlTime   string     `json:"crawl_time"`
	Date        string     `json:"date"`
	TopNEntries []BoardRow `json:"top_n_entries"`
	DaysFetched int        `json:"days_fetched"`
	NoData      bool       `json:"no_data"`
}

type HistoryArtifact struct {
	CrawlTime   string                `json:"crawl_time"`
	DaysFetched int                   `json:"days_fetched"`
	DataByDate  map[string][]BoardRow `json:"data_by_date"`
}

func Rows(entries []models.BoardEntry) []BoardRow {
	out := make([]BoardRow, 0, len(entries))
	for _, e := range entries {
		buyers := e.Buyers()
		if buyers == nil {
			buyers = []string{}
		}
		out = append(out, BoardRow{
			Rank:             e.Rank,
			TradingDate:      e.TradingDate,
			StockCode:        e.StockCode,
			StockName:        e.StockName,
			MarketCode:       e.MarketCode,
			ListingReason:    e.ListingReason,
			NetInflow:        json.Number(e.NetInflow.String()),
			NetInflowText:    FormatAmount(e.NetInflow),
			ChangePercent:    json.Number(e.ChangePercent.String()),
			BuyerDescription: e.BuyerDescription,
			Buyers:           buyers,
		})
	}
	return out
}

// NewBoardArtifact describes the newest fetched day. daysFetched counts every
// day collected in the same run.
func NewBoardArtifact(crawl time.Time, date string, entries []models.BoardEntry, daysFetched int) BoardArtifact {
	return BoardArtifact{
		CrawlTime:   crawl.Format(CrawlTimeLayout),
		Date:        date,
		TopNEntries: Rows(entries),
		DaysFetched: daysFetched,
		NoData:      len(entries) == 0,
	}
}

// EmptyBoardArtifact is written when no board could be fetched at all.
func EmptyBoardArtifact(crawl time.Time) BoardArtifact {
	return BoardArtifact{
		CrawlTime:   crawl.Format(CrawlTimeLayout),
		TopNEntries: []BoardRow{},
		NoData:      true,
	}
}

func NewHistoryArtifact(crawl time.Time, byDate map[string][]models.BoardEntry) HistoryArtifact {
	data := make(map[string][]BoardRow, len(byDate))
	for date, entries := range byDate {
		data[date] = Rows(entries)
	}
	return HistoryArtifact{
		CrawlTime:   crawl.Format(CrawlTimeLayout),
		DaysFetched: len(byDate),
		DataByDate:  data,
	}
}
