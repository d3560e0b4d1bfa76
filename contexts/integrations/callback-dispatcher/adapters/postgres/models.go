package postgresadapter

import (
	"time"

	"tally/contexts/integrations/callback-dispatcher/domain/entities"
)

type callbackModel struct {
	ID        string  `gorm:"column:id;primaryKey"`
	URL       string  `gorm:"column:url;uniqueIndex"`
	Secret    *string `gorm:"column:secret"`
	CreatedAt time.Time
}

func (callbackModel) TableName() string { return "callbacks" }

func (m callbackModel) toEntity() entities.Callback {
	return entities.Callback{
		CallbackID: m.ID,
		URL:        m.URL,
		Secret:     m.Secret,
		CreatedAt:  m.CreatedAt.UTC(),
	}
}
