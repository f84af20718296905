package domain

import "time"

// Job is a stored vacancy as the dashboard sees it.
type Job struct {
	ID                 int64    `json:"id"`
	ExternalJobID      *string  `json:"externalJobId"`
	Title              string   `json:"title"`
	Company            *string  `json:"company"`
	Industry           *string  `json:"industry"`
	LocationCity       *string  `json:"locationCity"`
	LocationState      *string  `json:"locationState"`
	SalaryRange        *string  `json:"salaryRange"`
	GenderRequirement  string   `json:"genderRequirement"`
	MinAge             int      `json:"minAge"`
	MaxAge             int      `json:"maxAge"`
	MinExperienceYears float64  `json:"minExperienceYears"`
	ExpireBy           string   `json:"expireBy"`
	URL                *string  `json:"url"`
	Latitude           *float64 `json:"latitude"`
	Longitude          *float64 `json:"longitude"`
	CreatedAt          string   `json:"createdAt"`
	LastEditedAt       string   `json:"lastEditedAt"`
	LastEditedBy       string   `json:"lastEditedBy"`
}

// JobInsert is the write shape. Nil pointers are stored as NULL.
type JobInsert struct {
	ExternalJobID      *string
	Title              string
	Company            *string
	Industry           *string
	LocationCity       *string
	LocationState      *string
	SalaryRange        *string
	GenderRequirement  string
	MinAge             int
	MaxAge             int
	MinExperienceYears float64
	ExpireBy           string
	URL                *string
	Latitude           *float64
	Longitude          *float64
	LastEditedAt       time.Time
	LastEditedBy       string
}

func (j JobInsert) HasCoordinates() bool {
	return j.Latitude != nil && j.Longitude != nil
}
