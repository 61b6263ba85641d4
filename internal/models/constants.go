package models

// Default column names.
const (
	DefaultInputColumn    = "text"
	OutputColumnCategory  = "category"
	OutputColumnTransform = "transformed"
)

// Separators used in LLM output.
const (
	BatchSeparator    = "||"
	CategorySeparator = ","
)

// CurrencyUSD is the currency provider prices are quoted in.
const CurrencyUSD = "USD"

// File permissions
const (
	PermissionConfigFile = 0600
	PermissionDirectory  = 0750
	PermissionOutputFile = 0644
)
