package models

import (
	"fmt"
)

// Order holds autoregressive, differencing and moving average orders
type Order struct {
	P int `mapstructure:"p" json:"p"`
	D int `mapstructure:"d" json:"d"`
	Q int `mapstructure:"q" json:"q"`
}

// Config carries the fixed orders of every strategy. Orders are not tuned.
type Config struct {
	// SeasonalPeriod turns the naive strategy into seasonal naive when positive
	SeasonalPeriod int        `mapstructure:"seasonal_period" json:"seasonal_period"`
	AR             Order      `mapstructure:"ar" json:"ar"`
	ARMA           Order      `mapstructure:"arma" json:"arma"`
	ARIMA          Order      `mapstructure:"arima" json:"arima"`
	ETS            ETSOptions `mapstructure:"ets" json:"ets"`
}

// NewDefaultConfig returns AR(2), ARMA(2,1), ARIMA(2,1,1) and additive Holt-Winters with trend
// and a 24 point season
func NewDefaultConfig() *Config {
	return &Config{
		AR:    Order{P: 2},
		ARMA:  Order{P: 2, Q: 1},
		ARIMA: Order{P: 2, D: 1, Q: 1},
		ETS:   *NewDefaultETSOptions(),
	}
}

// Validate checks the orders, a nil config resolves to the defaults
func (c *Config) Validate() (*Config, error) {
	if c == nil {
		return NewDefaultConfig(), nil
	}
	if c.SeasonalPeriod < 0 {
		return nil, fmt.Errorf("naive seasonal period %d, %w", c.SeasonalPeriod, ErrInvalidOrder)
	}
	if c.AR.P < 1 || c.AR.D != 0 || c.AR.Q != 0 {
		return nil, fmt.Errorf("ar order %+v, %w", c.AR, ErrInvalidOrder)
	}
	if c.ARMA.P < 0 || c.ARMA.Q < 0 || c.ARMA.D != 0 || c.ARMA.P+c.ARMA.Q == 0 {
		return nil, fmt.Errorf("arma order %+v, %w", c.ARMA, ErrInvalidOrder)
	}
	if c.ARIMA.P < 0 || c.ARIMA.Q < 0 || c.ARIMA.D < 0 || c.ARIMA.P+c.ARIMA.Q == 0 {
		return nil, fmt.Errorf("arima order %+v, %w", c.ARIMA, ErrInvalidOrder)
	}
	if err := c.ETS.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}
