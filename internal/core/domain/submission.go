package domain

import (
	"fmt"
	"strings"
	"time"
)

type Category string

const (
	CategoryAdministrative Category = "administrative"
	CategorySample         Category = "sample"
	CategorySequencing     Category = "sequencing"
	CategoryStorage        Category = "storage"
)

// Categories returns every known category in canonical order.
func Categories() []Category {
	return []Category{CategoryAdministrative, CategorySample, CategorySequencing, CategoryStorage}
}

// RequiredCategories must be present in every extraction payload.
func RequiredCategories() []Category {
	return []Category{CategoryAdministrative, CategorySample, CategorySequencing}
}

type Administrative struct {
	SubmitterEmail string `json:"submitter_email,omitempty"`
	FirstName      string `json:"first_name,omitempty"`
	LastName       string `json:"last_name,omitempty"`
	Institution    string `json:"institution,omitempty"`
	Phone          string `json:"phone,omitempty"`
	Department     string `json:"department,omitempty"`
}

type Sample struct {
	SampleID       string `json:"sample_id,omitempty"`
	SampleType     string `json:"sample_type,omitempty"`
	Volume         string `json:"volume,omitempty"`
	Concentration  string `json:"concentration,omitempty"`
	CollectionDate string `json:"collection_date,omitempty"`
}

type Sequencing struct {
	Platform    string `json:"platform,omitempty"`
	Coverage    string `json:"coverage,omitempty"`
	ReadLength  string `json:"read_length,omitempty"`
	LibraryPrep string `json:"library_prep,omitempty"`
}

type Storage struct {
	Temperature   string `json:"temperature,omitempty"`
	ContainerType string `json:"container_type,omitempty"`
	Location      string `json:"location,omitempty"`
}

// SubmissionData is the structured form of one laboratory submission document.
// Categories are optional; absence means the extractor found nothing for them.
type SubmissionData struct {
	Administrative *Administrative `json:"administrative,omitempty"`
	Sample         *Sample         `json:"sample,omitempty"`
	Sequencing     *Sequencing     `json:"sequencing,omitempty"`
	Storage        *Storage        `json:"storage,omitempty"`
}

// CategoryFields returns a field-name view for a category, plus whether the
// category is present at all. Scorer and rule validator consume this view
// rather than reaching into the typed structs.
func (d *SubmissionData) CategoryFields(category Category) (map[string]string, bool) {
	if d == nil {
		return nil, false
	}
	switch category {
	case CategoryAdministrative:
		if d.Administrative == nil {
			return nil, false
		}
		a := d.Administrative
		return map[string]string{
			"submitter_email": a.SubmitterEmail,
			"first_name":      a.FirstName,
			"last_name":       a.LastName,
			"institution":     a.Institution,
			"phone":           a.Phone,
			"department":      a.Department,
		}, true
	case CategorySample:
		if d.Sample == nil {
			return nil, false
		}
		s := d.Sample
		return map[string]string{
			"sample_id":       s.SampleID,
			"sample_type":     s.SampleType,
			"volume":          s.Volume,
			"concentration":   s.Concentration,
			"collection_date": s.CollectionDate,
		}, true
	case CategorySequencing:
		if d.Sequencing == nil {
			return nil, false
		}
		q := d.Sequencing
		return map[string]string{
			"platform":     q.Platform,
			"coverage":     q.Coverage,
			"read_length":  q.ReadLength,
			"library_prep": q.LibraryPrep,
		}, true
	case CategoryStorage:
		if d.Storage == nil {
			return nil, false
		}
		st := d.Storage
		return map[string]string{
			"temperature":    st.Temperature,
			"container_type": st.ContainerType,
			"location":       st.Location,
		}, true
	default:
		return nil, false
	}
}

// Field returns a single field value, empty when the category or field is absent.
func (d *SubmissionData) Field(category Category, field string) string {
	fields, ok := d.CategoryFields(category)
	if !ok {
		return ""
	}
	return fields[field]
}

func (d *SubmissionData) Clone() *SubmissionData {
	if d == nil {
		return nil
	}
	out := &SubmissionData{}
	if d.Administrative != nil {
		a := *d.Administrative
		out.Administrative = &a
	}
	if d.Sample != nil {
		s := *d.Sample
		out.Sample = &s
	}
	if d.Sequencing != nil {
		q := *d.Sequencing
		out.Sequencing = &q
	}
	if d.Storage != nil {
		st := *d.Storage
		out.Storage = &st
	}
	return out
}

// ApplyCorrections merges reviewer corrections keyed by dotted path,
// e.g. "administrative.submitter_email". Unknown paths are an error.
func (d *SubmissionData) ApplyCorrections(corrections map[string]string) error {
	for path, value := range corrections {
		category, field, ok := strings.Cut(path, ".")
		if !ok {
			return fmt.Errorf("correction path %q is not category.field", path)
		}
		if err := d.setField(Category(category), field, strings.TrimSpace(value)); err != nil {
			return err
		}
	}
	return nil
}

func (d *SubmissionData) setField(category Category, field, value string) error {
	switch category {
	case CategoryAdministrative:
		if d.Administrative == nil {
			d.Administrative = &Administrative{}
		}
		a := d.Administrative
		switch field {
		case "submitter_email":
			a.SubmitterEmail = value
		case "first_name":
			a.FirstName = value
		case "last_name":
			a.LastName = value
		case "institution":
			a.Institution = value
		case "phone":
			a.Phone = value
		case "department":
			a.Department = value
		default:
			return fmt.Errorf("unknown administrative field %q", field)
		}
	case CategorySample:
		if d.Sample == nil {
			d.Sample = &Sample{}
		}
		s := d.Sample
		switch field {
		case "sample_id":
			s.SampleID = value
		case "sample_type":
			s.SampleType = value
		case "volume":
			s.Volume = value
		case "concentration":
			s.Concentration = value
		case "collection_date":
			s.CollectionDate = value
		default:
			return fmt.Errorf("unknown sample field %q", field)
		}
	case CategorySequencing:
		if d.Sequencing == nil {
			d.Sequencing = &Sequencing{}
		}
		q := d.Sequencing
		switch field {
		case "platform":
			q.Platform = value
		case "coverage":
			q.Coverage = value
		case "read_length":
			q.ReadLength = value
		case "library_prep":
			q.LibraryPrep = value
		default:
			return fmt.Errorf("unknown sequencing field %q", field)
		}
	case CategoryStorage:
		if d.Storage == nil {
			d.Storage = &Storage{}
		}
		st := d.Storage
		switch field {
		case "temperature":
			st.Temperature = value
		case "container_type":
			st.ContainerType = value
		case "location":
			st.Location = value
		default:
			return fmt.Errorf("unknown storage field %q", field)
		}
	default:
		return fmt.Errorf("unknown category %q", category)
	}
	return nil
}

type SubmissionStatus string

const (
	StatusReceived   SubmissionStatus = "received"
	StatusProcessing SubmissionStatus = "processing"
	StatusCompleted  SubmissionStatus = "completed"
	StatusFailed     SubmissionStatus = "failed"
)

// Submission is the persisted intake record for one uploaded document.
type Submission struct {
	ID             string           `json:"id"`
	SourceDocument string           `json:"source_document"`
	StoragePath    string           `json:"storage_path"`
	MimeType       string           `json:"mime_type,omitempty"`
	Status         SubmissionStatus `json:"status"`
	Error          string           `json:"error,omitempty"`
	CreatedAt      time.Time        `json:"created_at"`
	UpdatedAt      time.Time        `json:"updated_at"`
}
