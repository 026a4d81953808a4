package dto

import "stores-api/internal/models"

// SaveStoreRequest is the payload for creating or updating a store. The
// author is never taken from the body; it comes from the authenticated user.
type SaveStoreRequest struct {
	Name        string   `json:"name" binding:"required"`
	Description string   `json:"description,omitempty"`
	Tags        []string `json:"tags,omitempty"`
	Address     string   `json:"address" binding:"required"`
	Lng         *float64 `json:"lng" binding:"required"`
	Lat         *float64 `json:"lat" binding:"required"`
}

type StoreListResponse struct {
	Stores     []models.Store    `json:"stores"`
	Pagination models.Pagination `json:"pagination"`
}

type TagListResponse struct {
	Tags   []models.TagCount `json:"tags"`
	Tag    string            `json:"tag,omitempty"`
	Stores []models.Store    `json:"stores"`
}
