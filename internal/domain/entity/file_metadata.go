package entity

import (
	"time"
)

const (
	StorageBackendLocal = "local"
	StorageBackendGCS   = "gcs"
)

// FileMetadata records an uploaded object so it can be deleted later.
type FileMetadata struct {
	ID          string    `json:"id" firestore:"id"`
	URL         string    `json:"url" firestore:"url"`
	ObjectName  string    `json:"objectName" firestore:"objectName"`
	Backend     string    `json:"backend" firestore:"backend"`
	Purpose     string    `json:"purpose,omitempty" firestore:"purpose,omitempty"` // gig_image, delivery, attachment
	UploadedBy  string    `json:"uploadedBy" firestore:"uploadedBy"`
	Filename    string    `json:"filename" firestore:"filename"`
	ContentType string    `json:"contentType" firestore:"contentType"`
	Size        int64     `json:"size" firestore:"size"`
	CreatedAt   time.Time `json:"createdAt" firestore:"createdAt"`
}
