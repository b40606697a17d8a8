package client

import (
	"github.com/fivetwenty-io/sforce/internal/constants"
	internalhttp "github.com/fivetwenty-io/sforce/internal/http"
	"github.com/fivetwenty-io/sforce/pkg/sforce"
)

// createHTTPClientOptions builds HTTP client options from config.
func createHTTPClientOptions(config *sforce.Config) []internalhttp.Option {
	var httpOpts []internalhttp.Option

	if config.Logger != nil {
		httpOpts = append(httpOpts, internalhttp.WithLogger(config.Logger))
	}

	if config.Debug && config.Logger != nil {
		httpOpts = append(httpOpts,
			internalhttp.WithRequestInterceptor(sforce.LoggingInterceptor(config.Logger)),
			internalhttp.WithResponseInterceptor(sforce.LoggingResponseInterceptor(config.Logger)),
		)
	}

	if len(config.Headers) > 0 {
		httpOpts = append(httpOpts, internalhttp.WithRequestInterceptor(sforce.HeaderInterceptor(config.Headers)))
	}

	if config.UserAgent != "" {
		httpOpts = append(httpOpts, internalhttp.WithUserAgent(config.UserAgent))
	}

	if config.HTTPTimeout > 0 {
		httpOpts = append(httpOpts, internalhttp.WithTimeout(config.HTTPTimeout))
	}

	if config.RetryMax > 0 {
		retryWaitMin := constants.DefaultRetryWaitMin
		retryWaitMax := constants.DefaultRetryWaitMax

		if config.RetryWaitMin > 0 {
			retryWaitMin = config.RetryWaitMin
		}

		if config.RetryWaitMax > 0 {
			retryWaitMax = config.RetryWaitMax
		}

		httpOpts = append(httpOpts, internalhttp.WithRetryConfig(config.RetryMax, retryWaitMin, retryWaitMax))
	}

	if config.Metrics != nil {
		httpOpts = append(httpOpts,
			internalhttp.WithRequestInterceptor(sforce.MetricsRequestInterceptor(config.Metrics)),
			internalhttp.WithResponseInterceptor(sforce.MetricsResponseInterceptor(config.Metrics)),
		)
	}

	return httpOpts
}

// NewSession returns config.Session when set, otherwise an HTTP transport
// built from config. extra options are applied last.
func NewSession(config *sforce.Config, extra ...internalhttp.Option) sforce.Session {
	if config.Session != nil {
		return config.Session
	}

	opts := append(createHTTPClientOptions(config), extra...)

	return internalhttp.NewClient(opts...)
}
