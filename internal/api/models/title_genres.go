package models

// explicit join model so the (title, genre) pair is unique
type TitleGenre struct {
	TitleID int64 `json:"title_id" gorm:"primaryKey;autoIncrement:false"`
	GenreID int64 `json:"genre_id" gorm:"primaryKey;autoIncrement:false"`
}

func (TitleGenre) TableName() string {
	return "title_genres"
}
