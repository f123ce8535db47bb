package models

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// BoardEntry is one stock on a trading day's board.
type BoardEntry struct {
	ID               uint64          `gorm:"primaryKey;autoIncrement;comment:记录ID" json:"-"`
	TradingDate      string          `gorm:"type:varchar(10);not null;uniqueIndex:uk_board_date_code,priority:1;comment:交易日(YYYY-MM-DD)" json:"trading_date"`
	StockCode        string          `gorm:"type:varchar(16);not null;uniqueIndex:uk_board_date_code,priority:2;comment:股票代码" json:"stock_code"`
	StockName        string          `gorm:"type:text;comment:股票名称" json:"stock_name"`
	MarketCode       string          `gorm:"type:varchar(8);comment:市场代码" json:"market_code"`
	ListingReason    string          `gorm:"type:text;comment:上榜原因" json:"listing_reason"`
	NetInflow        decimal.Decimal `gorm:"type:numeric(20,2);not null;default:0;comment:净买入额" json:"net_inflow"`
	ChangePercent    decimal.Decimal `gorm:"type:numeric(10,4);not null;default:0;comment:涨跌幅" json:"change_percent"`
	BuyerDescription string          `gorm:"type:text;comment:买方席位" json:"buyer_description"`
	Rank             int             `gorm:"not null;default:0;index;comment:当日排名" json:"rank"`
	CreatedAt        time.Time       `gorm:"autoCreateTime;comment:入库时间" json:"-"`
}

func (BoardEntry) TableName() string {
	return "board_entries"
}

// Buyers splits the buyer description into individual seats.
func (e BoardEntry) Buyers() []string {
	if strings.TrimSpace(e.BuyerDescription) == "" {
		return nil
	}
	parts := strings.Split(e.BuyerDescription, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
