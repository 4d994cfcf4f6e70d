package calendarevent

import "gorm.io/gorm"

type CalendarEventContainer struct {
	Repo CalendarEventRepository
}

func NewCalendarEventContainer(db *gorm.DB) *CalendarEventContainer {
	return &CalendarEventContainer{
		Repo: NewRepository(db),
	}
}
