package commands

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/fivetwenty-io/sforce/internal/constants"
	"github.com/fivetwenty-io/sforce/pkg/sforce"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// printPayload renders a response in the configured output format.
func printPayload(payload sforce.Payload) error {
	switch output := viper.GetString("output"); output {
	case constants.OutputJSON:
		encoder := json.NewEncoder(os.Stdout)
		encoder.SetIndent("", "  ")

		return encoder.Encode(payload)
	case constants.OutputYAML:
		return yaml.NewEncoder(os.Stdout).Encode(payload)
	case constants.OutputTable, "":
		return payloadTable(payload)
	default:
		return fmt.Errorf("%w: %s", constants.ErrUnsupportedOutput, output)
	}
}

func payloadTable(payload sforce.Payload) error {
	switch value := payload.(type) {
	case nil:
		return nil
	case string:
		fmt.Println(value)

		return nil
	case map[string]any:
		table := tablewriter.NewWriter(os.Stdout)
		table.Header("Field", "Value")

		keys := make([]string, 0, len(value))
		for key := range value {
			keys = append(keys, key)
		}

		sort.Strings(keys)

		for _, key := range keys {
			_ = table.Append(key, cell(value[key]))
		}

		return render(table)
	case []any:
		table := tablewriter.NewWriter(os.Stdout)
		table.Header("#", "Value")

		for i, item := range value {
			_ = table.Append(fmt.Sprint(i), cell(item))
		}

		return render(table)
	default:
		fmt.Println(cell(value))

		return nil
	}
}

// cell renders scalars as is and nested values as compact JSON.
func cell(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case bool, float64, int, int64:
		return fmt.Sprint(v)
	default:
		data, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprint(v)
		}

		return string(data)
	}
}

func render(table *tablewriter.Table) error {
	err := table.Render()
	if err != nil {
		return fmt.Errorf("failed to render table: %w", err)
	}

	return nil
}

// PrintMetrics prints per-endpoint request statistics when --metrics is set.
func PrintMetrics() error {
	if !viper.GetBool("metrics") {
		return nil
	}

	table := tablewriter.NewWriter(os.Stderr)
	table.Header("Endpoint", "Requests", "Errors", "Avg latency")

	for _, endpoint := range metrics.Endpoints() {
		m := metrics.GetMetrics(endpoint)
		_ = table.Append(endpoint, fmt.Sprint(m.TotalRequests), fmt.Sprint(m.TotalErrors),
			m.AverageLatency.Round(time.Millisecond).String())
	}

	return render(table)
}
