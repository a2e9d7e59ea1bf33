package types

// PreferenceDimension is one axis of a user's travel personality.
type PreferenceDimension string

const (
	DimensionMoney     PreferenceDimension = "money"
	DimensionFood      PreferenceDimension = "food"
	DimensionTransport PreferenceDimension = "transport"
	DimensionSchedule  PreferenceDimension = "schedule"
	DimensionPhoto     PreferenceDimension = "photo"
)

// PreferenceDimensions lists the dimensions in the order hints are rendered.
var PreferenceDimensions = []PreferenceDimension{
	DimensionMoney,
	DimensionFood,
	DimensionTransport,
	DimensionSchedule,
	DimensionPhoto,
}

// PreferenceTag is the enumerated answer for a dimension, e.g. "money1".
type PreferenceTag string

// PreferenceProfile maps every answered dimension to its tag.
type PreferenceProfile map[PreferenceDimension]PreferenceTag
