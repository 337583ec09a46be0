package connectors

import (
	"context"
	"fmt"
	"net/http"
	"regexp"
	"strconv"
	"strings"

	logger "github.com/sirupsen/logrus"

	"github.com/nntaoli-project/goex"
	"github.com/nntaoli-project/goex/binance"
)

// BinanceConnector places real spot market orders. Order placement is not
// retried: a timeout after the order hit the matching engine would double
// the position.
type BinanceConnector struct {
	exchange goex.API
	log      *logger.Entry
}

func NewBinanceConnector(cfg Config, log *logger.Entry) *BinanceConnector {
	if log == nil {
		log = logger.NewEntry(logger.StandardLogger())
	}

	endpoint := cfg.BinanceBaseURL
	if strings.TrimSpace(endpoint) == "" {
		endpoint = binance.GLOBAL_API_BASE_URL
	}

	apiConfig := &goex.APIConfig{
		HttpClient:   http.DefaultClient,
		Endpoint:     endpoint,
		ApiKey:       cfg.BinanceAPIKey,
		ApiSecretKey: cfg.BinanceAPISecret,
	}

	return &BinanceConnector{
		exchange: binance.NewWithConfig(apiConfig),
		log:      log,
	}
}

func (c *BinanceConnector) MarketBuy(ctx context.Context, symbol string, size, refPrice float64) (*Fill, error) {
	return c.place(ctx, symbol, "buy", size, refPrice)
}

func (c *BinanceConnector) MarketSell(ctx context.Context, symbol string, size, refPrice float64) (*Fill, error) {
	return c.place(ctx, symbol, "sell", size, refPrice)
}

func (c *BinanceConnector) place(ctx context.Context, symbol, side string, size, refPrice float64) (*Fill, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	pair := currencyPair(symbol)
	amount := strconv.FormatFloat(size, 'f', -1, 64)
	price := strconv.FormatFloat(refPrice, 'f', -1, 64)

	var (
		order *goex.Order
		err   error
	)
	if side == "buy" {
		order, err = c.exchange.MarketBuy(amount, price, pair)
	} else {
		order, err = c.exchange.MarketSell(amount, price, pair)
	}
	if err != nil {
		return nil, decorateError(fmt.Errorf("market %s %s failed: %w", side, symbol, err))
	}

	fillPrice := order.AvgPrice
	if fillPrice <= 0 {
		fillPrice = refPrice
	}

	fill := &Fill{
		OrderID: order.OrderID2,
		Symbol:  symbol,
		Side:    side,
		Price:   fillPrice,
		Size:    size,
		Fee:     order.Fee,
	}

	c.log.WithFields(logger.Fields{
		"symbol":   symbol,
		"side":     side,
		"size":     size,
		"price":    fillPrice,
		"order_id": fill.OrderID,
	}).Info("live order filled")

	return fill, nil
}

// OpenPositions reports non-dust base balances so a restarted live run can
// reconcile local position rows against what the account actually holds.
func (c *BinanceConnector) OpenPositions(ctx context.Context) ([]RemotePosition, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	account, err := c.exchange.GetAccount()
	if err != nil {
		return nil, fmt.Errorf("get account failed: %w", err)
	}

	const dust = 1e-8

	var positions []RemotePosition
	for currency, sub := range account.SubAccounts {
		if sub.Amount <= dust {
			continue
		}
		if currency.Symbol == "USDT" || currency.Symbol == "BUSD" {
			continue // quote balances are capital, not positions
		}
		positions = append(positions, RemotePosition{
			Symbol: currency.Symbol + "_USDT",
			Size:   sub.Amount,
		})
	}

	return positions, nil
}

var binanceCodeRe = regexp.MustCompile(`"code"\s*:\s*(-\d+)`)

// decorateError appends the documented name of the Binance error code
// embedded in the response body, when there is one.
func decorateError(err error) error {
	match := binanceCodeRe.FindStringSubmatch(err.Error())
	if match == nil {
		return err
	}
	code, convErr := strconv.Atoi(match[1])
	if convErr != nil {
		return err
	}
	return fmt.Errorf("%w (%s)", err, GetErrorMsg(code))
}

func currencyPair(symbol string) goex.CurrencyPair {
	parts := strings.SplitN(symbol, "_", 2)
	quote := "USDT"
	base := symbol
	if len(parts) == 2 {
		base, quote = parts[0], parts[1]
	}
	return goex.NewCurrencyPair(goex.Currency{Symbol: base}, goex.Currency{Symbol: quote})
}
