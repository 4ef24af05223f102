package gcp

import (
	"path"

	firestore "google.golang.org/api/firestore/v1"

	"travelnotes/internal/service"
)

// Record field names.
const (
	fieldName        = "name"
	fieldDescription = "description"
	fieldImage       = "image"
)

// toDocument converts a note record to a Firestore document.
// Empty optional fields are omitted.
func toDocument(n service.NoteData) *firestore.Document {
	fields := map[string]firestore.Value{
		fieldName: {StringValue: n.Name},
	}
	if n.Description != "" {
		fields[fieldDescription] = firestore.Value{StringValue: n.Description}
	}
	if n.Image != "" {
		fields[fieldImage] = firestore.Value{StringValue: n.Image}
	}
	return &firestore.Document{Fields: fields}
}

// fromDocument converts a Firestore document to a note record.
// The ID is the last segment of the document name.
func fromDocument(doc *firestore.Document) service.NoteData {
	return service.NoteData{
		ID:          path.Base(doc.Name),
		Name:        doc.Fields[fieldName].StringValue,
		Description: doc.Fields[fieldDescription].StringValue,
		Image:       doc.Fields[fieldImage].StringValue,
	}
}
