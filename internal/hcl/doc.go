// Package hcl implements the config.Loader interface for HCL model files and
// renders models back to HCL.
//
// A model file is made of `model`, `category`, `line_item`,
// `generator "<kind>" "<name>"` and `constraint` blocks:
//
//	model {
//	  start_year = 2024
//	  end_year   = 2026
//	}
//
//	line_item "revenue" {
//	  category = "income"
//	  values   = { 2024 = 100, 2025 = 110, 2026 = 121 }
//	}
//
//	line_item "costs" {
//	  formula = "revenue * 0.6"
//	}
package hcl
