package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"company_valuation/pkg/core/projection"
	"company_valuation/pkg/core/scenario"
	"company_valuation/pkg/core/utils"
	"company_valuation/pkg/core/valuation"
)

var waccCmd = &cobra.Command{
	Use:   "wacc",
	Short: "Price a risk profile (JSON/Hjson file or flags)",
	RunE: func(cmd *cobra.Command, args []string) error {
		var rp valuation.RiskProfile
		if path, _ := cmd.Flags().GetString("file"); path != "" {
			if err := utils.LoadFile(path, &rp); err != nil {
				return err
			}
		} else {
			f := cmd.Flags()
			rp.RiskFreeRate, _ = f.GetFloat64("rf")
			rp.LeveredBeta, _ = f.GetFloat64("beta")
			rp.EquityRiskPremium, _ = f.GetFloat64("erp")
			rp.CountryRiskPremium, _ = f.GetFloat64("crp")
			rp.AdjustedDefaultSpread, _ = f.GetFloat64("default-spread")
			rp.CompanySpread, _ = f.GetFloat64("company-spread")
			rp.DERatio, _ = f.GetFloat64("de")
			rp.CorporateTaxRate, _ = f.GetFloat64("tax")
			if f.Changed("premium") {
				p, _ := f.GetFloat64("premium")
				rp.WaccPremium = &p
			}
		}
		if err := rp.Validate(); err != nil {
			return err
		}
		return printJSON(map[string]interface{}{
			"components":   valuation.CalculateWaccComponents(rp),
			"wacc_percent": valuation.CalculateWaccPercent(rp),
		})
	},
}

var calculateCmd = &cobra.Command{
	Use:   "calculate",
	Short: "Project a model file and print the results",
	RunE: func(cmd *cobra.Command, args []string) error {
		model, err := loadModel(cmd)
		if err != nil {
			return err
		}
		res, err := projection.Calculate(model)
		if err != nil {
			return err
		}
		return printJSON(res)
	},
}

var scenariosCmd = &cobra.Command{
	Use:   "scenarios",
	Short: "Generate the standard sensitivity scenarios for a model file",
	RunE: func(cmd *cobra.Command, args []string) error {
		model, err := loadModel(cmd)
		if err != nil {
			return err
		}
		res, err := projection.Calculate(model)
		if err != nil {
			return err
		}
		generated, err := scenario.GenerateAutoScenarios(model, res)
		if err != nil {
			return err
		}

		type row struct {
			Name     string  `json:"name"`
			MinInput float64 `json:"min_input"`
			MaxInput float64 `json:"max_input"`
			MinEV    float64 `json:"min_ev"`
			MaxEV    float64 `json:"max_ev"`
		}
		out := struct {
			BaseEV    float64 `json:"base_ev"`
			Scenarios []row   `json:"scenarios"`
		}{BaseEV: res.EnterpriseValue}
		for _, s := range generated {
			out.Scenarios = append(out.Scenarios, row{s.Name, s.MinInput, s.MaxInput, s.MinValue, s.MaxValue})
		}
		return printJSON(out)
	},
}

func init() {
	f := waccCmd.Flags()
	f.String("file", "", "risk profile JSON/Hjson file")
	f.Float64("rf", 0, "risk-free rate (decimal)")
	f.Float64("beta", 1, "levered beta")
	f.Float64("erp", 0, "equity risk premium (decimal)")
	f.Float64("crp", 0, "country risk premium (decimal)")
	f.Float64("default-spread", 0, "adjusted default spread (decimal)")
	f.Float64("company-spread", 0, "company spread (decimal)")
	f.Float64("de", 0, "target debt/equity ratio")
	f.Float64("tax", 0, "corporate tax rate (decimal)")
	f.Float64("premium", 0, "additional WACC premium (decimal)")

	for _, c := range []*cobra.Command{calculateCmd, scenariosCmd} {
		c.Flags().String("file", "", "model JSON/Hjson file (form format, see config/sample_model.hjson)")
		_ = c.MarkFlagRequired("file")
	}
}

func loadModel(cmd *cobra.Command) (*projection.FinancialModel, error) {
	path, _ := cmd.Flags().GetString("file")
	var form projection.FormInput
	if err := utils.LoadFile(path, &form); err != nil {
		return nil, err
	}
	if err := form.Validate(); err != nil {
		return nil, err
	}
	return form.ToModel(), nil
}

func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	return nil
}
