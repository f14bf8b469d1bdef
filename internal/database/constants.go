package database

// EncodingDim is the fixed dimension for face encodings (128 for dlib-style
// face descriptors). All stored and observed vectors must have this length.
const EncodingDim = 128

// Settings keys persisted in the settings table.
const (
	SettingMatchThreshold = "match_threshold"
	SettingTelegramToken  = "telegram_bot_token"
	SettingTelegramChatID = "telegram_chat_id"
)

// DefaultMatchThreshold is the acceptance threshold used when no setting is
// stored. Lower is more permissive; the recognized range is (0, 1].
const DefaultMatchThreshold = 0.6

// HNSW index parameters for 128-dim face encodings
const (
	// HNSWMaxNeighbors (M) is the maximum number of neighbors per node.
	// Higher values improve recall but increase memory and build time.
	HNSWMaxNeighbors = 16

	// HNSWMinGallery is the gallery size below which a linear scan is used
	// instead of the HNSW graph. Small galleries are cheaper to scan exactly.
	HNSWMinGallery = 256

	// HNSWSearchMultiplier is the factor to request more candidates from
	// HNSW to ensure enough remain after the exact re-ranking pass.
	HNSWSearchMultiplier = 3
)
