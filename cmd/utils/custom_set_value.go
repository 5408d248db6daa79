package utils

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
	"github.com/stellar/go-stellar-sdk/support/config"
	"github.com/stellar/go-stellar-sdk/support/log"

	"github.com/fixzit/lease-engine/internal/crashtracker"
	"github.com/fixzit/lease-engine/internal/monitor"
	"github.com/fixzit/lease-engine/internal/services"
)

func SetConfigOptionMetricType(co *config.ConfigOption) error {
	metricType := viper.GetString(co.Name)

	metricTypeParsed, err := monitor.ParseMetricType(metricType)
	if err != nil {
		return fmt.Errorf("couldn't parse metric type: %w", err)
	}

	*(co.ConfigKey.(*monitor.MetricType)) = metricTypeParsed
	return nil
}

func SetConfigOptionCrashTrackerType(co *config.ConfigOption) error {
	ctType := viper.GetString(co.Name)

	ctTypeParsed, err := crashtracker.ParseCrashTrackerType(ctType)
	if err != nil {
		return fmt.Errorf("couldn't parse crash tracker type: %w", err)
	}

	*(co.ConfigKey.(*crashtracker.CrashTrackerType)) = ctTypeParsed
	return nil
}

func SetConfigOptionComplianceRegistrationType(co *config.ConfigOption) error {
	registrationType := viper.GetString(co.Name)

	registrationTypeParsed, err := services.ParseComplianceRegistrationType(registrationType)
	if err != nil {
		return fmt.Errorf("couldn't parse compliance registration type: %w", err)
	}

	key, ok := co.ConfigKey.(*services.ComplianceRegistrationType)
	if !ok {
		return fmt.Errorf("configKey has an invalid type %T", co.ConfigKey)
	}
	*key = registrationTypeParsed
	return nil
}

func SetConfigOptionLogLevel(co *config.ConfigOption) error {
	// parse string to logLevel object
	logLevelStr := viper.GetString(co.Name)
	logLevel, err := logrus.ParseLevel(logLevelStr)
	if err != nil {
		return fmt.Errorf("couldn't parse log level: %w", err)
	}

	// update the configKey
	key, ok := co.ConfigKey.(*logrus.Level)
	if !ok {
		return fmt.Errorf("configKey has an invalid type %T", co.ConfigKey)
	}
	*key = logLevel

	// Log for debugging
	if config.IsExplicitlySet(co) {
		log.Debugf("Setting log level to: %q", logLevel)
		log.DefaultLogger.SetLevel(*key)
	} else {
		log.Debugf("Using default log level: %q", logLevel)
	}
	return nil
}

// SetConfigOptionThresholds parses a comma-separated list of day thresholds, e.g. "90,60,30". An empty value leaves
// the list nil.
func SetConfigOptionThresholds(co *config.ConfigOption) error {
	key, ok := co.ConfigKey.(*[]int)
	if !ok {
		return fmt.Errorf("the expected type for this config key is an int slice, but got a %T instead", co.ConfigKey)
	}

	thresholdsStr := strings.TrimSpace(viper.GetString(co.Name))
	if thresholdsStr == "" {
		*key = nil
		return nil
	}

	var thresholds []int
	for _, thresholdStr := range strings.Split(thresholdsStr, ",") {
		thresholdStr = strings.TrimSpace(thresholdStr)
		if thresholdStr == "" {
			continue
		}
		threshold, err := strconv.Atoi(thresholdStr)
		if err != nil {
			return fmt.Errorf("parsing threshold %q: %w", thresholdStr, err)
		}
		if threshold <= 0 {
			return fmt.Errorf("threshold %d must be greater than zero", threshold)
		}
		thresholds = append(thresholds, threshold)
	}

	*key = thresholds
	return nil
}

// SetConfigOptionOptionalDecimal parses a decimal value. An empty value leaves the pointer nil.
func SetConfigOptionOptionalDecimal(co *config.ConfigOption) error {
	key, ok := co.ConfigKey.(**decimal.Decimal)
	if !ok {
		return fmt.Errorf("the expected type for this config key is a decimal pointer, but got a %T instead", co.ConfigKey)
	}

	decimalStr := strings.TrimSpace(viper.GetString(co.Name))
	if decimalStr == "" {
		*key = nil
		return nil
	}

	value, err := decimal.NewFromString(decimalStr)
	if err != nil {
		return fmt.Errorf("parsing decimal %q: %w", decimalStr, err)
	}

	*key = &value
	return nil
}

// SetConfigOptionDate parses a calendar date formatted as YYYY-MM-DD, at midnight UTC. An empty value leaves the zero
// time.
func SetConfigOptionDate(co *config.ConfigOption) error {
	key, ok := co.ConfigKey.(*time.Time)
	if !ok {
		return fmt.Errorf("the expected type for this config key is a time.Time, but got a %T instead", co.ConfigKey)
	}

	dateStr := strings.TrimSpace(viper.GetString(co.Name))
	if dateStr == "" {
		*key = time.Time{}
		return nil
	}

	date, err := time.Parse(time.DateOnly, dateStr)
	if err != nil {
		return fmt.Errorf("parsing date %q, expected the YYYY-MM-DD format: %w", dateStr, err)
	}

	*key = date
	return nil
}
