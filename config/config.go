package config

import "github.com/caarlos0/env/v6"

type Config struct {
	// Server configuration
	Server struct {
		// Port the HTTP API listens on
		Port string `env:"SERVER_PORT" envDefault:"5250"`

		// Path to the sqlite reservation database
		DatabasePath string `env:"DATABASE_PATH" envDefault:"database/harvesthouse.db"`

		// Path to the property configuration file
		PropertyConfigPath string `env:"PROPERTY_CONFIG" envDefault:"config/property.json"`

		// Path to the events/seasonality configuration file
		EventsConfigPath string `env:"EVENTS_CONFIG" envDefault:"config/events.json"`

		// Path to the scraped competitor rate snapshot
		CompetitorRatesPath string `env:"COMPETITOR_RATES" envDefault:"data/competitor-rates.json"`
	}

	// Pricing engine thresholds
	Pricing struct {
		// Lead time (days) inside which last-minute demand raises rates
		LastMinuteDays int `env:"PRICING_LAST_MINUTE_DAYS" envDefault:"7"`

		// Maximum last-minute uplift at zero days out (0.15 = +15%)
		LastMinuteUplift float64 `env:"PRICING_LAST_MINUTE_UPLIFT" envDefault:"0.15"`

		// Lead time (days) beyond which slow-pace dates are discounted
		FarOutDays int `env:"PRICING_FAR_OUT_DAYS" envDefault:"180"`

		// Booking pace below which the far-out discount applies
		FarOutPaceThreshold float64 `env:"PRICING_FAR_OUT_PACE" envDefault:"0.3"`

		// Maximum far-out discount at zero pace (0.10 = -10%)
		FarOutDiscount float64 `env:"PRICING_FAR_OUT_DISCOUNT" envDefault:"0.10"`

		// Occupancy step function breakpoints and multipliers
		LowOccupancyPct   float64 `env:"PRICING_LOW_OCCUPANCY_PCT" envDefault:"0.40"`
		HighOccupancyPct  float64 `env:"PRICING_HIGH_OCCUPANCY_PCT" envDefault:"0.75"`
		LowOccupancyMult  float64 `env:"PRICING_LOW_OCCUPANCY_MULT" envDefault:"0.95"`
		HighOccupancyMult float64 `env:"PRICING_HIGH_OCCUPANCY_MULT" envDefault:"1.10"`

		// Competitor band clamps: stay under high*margin, above low*margin
		CompetitorHighMargin float64 `env:"PRICING_COMPETITOR_HIGH_MARGIN" envDefault:"1.05"`
		CompetitorLowMargin  float64 `env:"PRICING_COMPETITOR_LOW_MARGIN" envDefault:"0.90"`

		// Length-of-stay discount tiers; the longest qualifying tier wins
		MidStayNights    int     `env:"PRICING_MID_STAY_NIGHTS" envDefault:"3"`
		MidStayDiscount  float64 `env:"PRICING_MID_STAY_DISCOUNT" envDefault:"0.05"`
		LongStayNights   int     `env:"PRICING_LONG_STAY_NIGHTS" envDefault:"4"`
		LongStayDiscount float64 `env:"PRICING_LONG_STAY_DISCOUNT" envDefault:"0.10"`
		WeekStayNights   int     `env:"PRICING_WEEK_STAY_NIGHTS" envDefault:"7"`
		WeekStayDiscount float64 `env:"PRICING_WEEK_STAY_DISCOUNT" envDefault:"0.15"`
	}

	// Availability allocator thresholds
	Allocation struct {
		// Margin individual revenue must beat buyout by on Fri/Sat nights
		WeekendBuyoutMargin float64 `env:"ALLOC_WEEKEND_BUYOUT_MARGIN" envDefault:"0.10"`

		// Margin buyout revenue must beat individual by on weekday nights
		WeekdayBuyoutMargin float64 `env:"ALLOC_WEEKDAY_BUYOUT_MARGIN" envDefault:"0.20"`

		// Lead time (days) beyond which rooms are held back for buyout
		FarOutDays int `env:"ALLOC_FAR_OUT_DAYS" envDefault:"90"`

		// Rooms held back on far-out dates when the comparison is close
		FarOutHoldRooms int `env:"ALLOC_FAR_OUT_HOLD_ROOMS" envDefault:"2"`

		// Lead time (days) inside which everything is released to individual
		NearTermDays int `env:"ALLOC_NEAR_TERM_DAYS" envDefault:"14"`

		// Baseline probability of selling an individual room
		BaseSellThrough float64 `env:"ALLOC_BASE_SELL_THROUGH" envDefault:"0.70"`
	}

	// Buyout allocation engine thresholds
	Buyout struct {
		// Event demand weight at or above which protection triggers
		HighDemandWeight float64 `env:"BUYOUT_HIGH_DEMAND_WEIGHT" envDefault:"0.6"`

		// Minimum lead time (days) for event-driven protection
		MinAdvanceDays int `env:"BUYOUT_MIN_ADVANCE_DAYS" envDefault:"30"`

		// Margin buyout revenue must beat individual by for pure
		// revenue-driven protection
		RevenueMargin float64 `env:"BUYOUT_REVENUE_MARGIN" envDefault:"0.15"`

		// Booking pace ratios that shift the protection thresholds
		PaceHighRatio      float64 `env:"BUYOUT_PACE_HIGH" envDefault:"1.2"`
		PaceLowRatio       float64 `env:"BUYOUT_PACE_LOW" envDefault:"0.8"`
		PaceThresholdShift float64 `env:"BUYOUT_PACE_SHIFT" envDefault:"0.1"`

		// Horizon (days from today) the nightly batch pass covers
		HorizonDays int `env:"BUYOUT_HORIZON_DAYS" envDefault:"455"`

		// Hour of day (local) the nightly rebuild runs
		RebuildHour int `env:"BUYOUT_REBUILD_HOUR" envDefault:"3"`
	}

	// Reservation ingest configuration
	Ingest struct {
		// Maximum queue buffer of reservation batches
		MaxBatchSize int `env:"INGEST_MAX_BATCH_SIZE" envDefault:"100"`

		// Number of concurrent batch processors
		ProcessorCount int `env:"INGEST_PROCESSOR_COUNT" envDefault:"2"`

		// Maximum number of retries for failed batches
		MaxRetries int `env:"INGEST_MAX_RETRIES" envDefault:"3"`

		// Delay between retries in seconds
		RetryDelay int `env:"INGEST_RETRY_DELAY" envDefault:"5"`
	}
}

func LoadConfig() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
