package dto

// GetTableRequest identifies a table of the latest run
type GetTableRequest struct {
	Name string `uri:"name" binding:"required,oneof=songs artists users time songplays"`
}
