package entity

// ServiceGame is one title of an external service library, cached in the
// local database. The (Service, AppID) pair identifies the title on its
// service, but the schema does not enforce its uniqueness.
type ServiceGame struct {
	Id      uint   `gorm:"primaryKey"`
	Service string `gorm:"not null;index"`
	AppID   string `gorm:"column:appid;not null"`
	Slug    string
	Name    string `gorm:"not null"`
	Details string
}
