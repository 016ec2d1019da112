package models

// IDSequence backs the human-readable identifier allocator. Value holds the
// last number handed out for the prefix; allocation bumps it atomically.
type IDSequence struct {
	Prefix string `gorm:"column:prefix;type:text;primaryKey"`
	Value  int64  `gorm:"column:value;not null"`
}

func (IDSequence) TableName() string { return "id_sequences" }
