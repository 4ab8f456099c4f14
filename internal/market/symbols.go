package market

import "github.com/atharvakonge/investment-navigator/internal/models"

// Crypto tickers are quoted against USDT on Binance
var cryptoSymbols = map[string]string{
	"BTC":     "BINANCE:BTCUSDT",
	"ETH":     "BINANCE:ETHUSDT",
	"DOGE":    "BINANCE:DOGEUSDT",
	"SOL":     "BINANCE:SOLUSDT",
	"ADA":     "BINANCE:ADAUSDT",
	"XRP":     "BINANCE:XRPUSDT",
	"DOT":     "BINANCE:DOTUSDT",
	"BTC-USD": "BINANCE:BTCUSDT",
	"ETH-USD": "BINANCE:ETHUSDT",
}

// FormatSymbol maps a display symbol to the one Finnhub quotes under
func FormatSymbol(symbol string) string {
	symbol = models.NormalizeSymbol(symbol)
	if mapped, ok := cryptoSymbols[symbol]; ok {
		return mapped
	}
	return symbol
}

// Screener lists
var (
	PopularStocks = []string{"AAPL", "MSFT", "GOOGL", "AMZN", "NVDA", "TSLA", "META", "AMD", "NFLX", "INTC", "DIS", "JPM", "V", "PG"}
	PopularCrypto = []string{"BTC", "ETH", "DOGE", "SOL", "ADA", "XRP", "DOT", "LTC", "LINK", "MATIC"}
	PopularETFs   = []string{"SPY", "QQQ", "DIA", "IWM", "VTI", "VOO", "IVV", "ARKK", "SMH"}
)

// Screener groups the popular symbol lists by asset class
type Screener struct {
	Stocks []string `json:"stocks"`
	Crypto []string `json:"crypto"`
	ETFs   []string `json:"etfs"`
}

// PopularLists returns copies of the screener lists
func PopularLists() Screener {
	return Screener{
		Stocks: append([]string(nil), PopularStocks...),
		Crypto: append([]string(nil), PopularCrypto...),
		ETFs:   append([]string(nil), PopularETFs...),
	}
}
