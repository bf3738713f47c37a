package models

// ProfileRequest is the query of GET /api/v1/profil
type ProfileRequest struct {
	URL string `query:"url" json:"url" validate:"required,url,malt_profile"`
}

// ProfileListRequest is the query of GET /api/v1/profiles
type ProfileListRequest struct {
	Status string `query:"status" validate:"omitempty,oneof=TODO IN_PROGRESS ERROR CANCELLED SCRAPPED NOT_FOUND"`
	Limit  int    `query:"limit" validate:"omitempty,min=1,max=500"`
}
