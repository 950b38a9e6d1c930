package dtos

// JobForm carries the job posting the user wants a letter for.
// Description has a minimum length: the generator needs enough material
// to write something specific.
type JobForm struct {
	ID            uint   `json:"id"`
	Title         string `json:"title" binding:"required"`
	Company       string `json:"company" binding:"required"`
	Description   string `json:"description" binding:"required,min=100"`
	ContactPerson string `json:"contact_person"`
	URL           string `json:"url" binding:"omitempty,url"`
	Deadline      string `json:"deadline" binding:"omitempty,datetime=2006-01-02"`
}

// DraftForm is the lax variant used when saving a posting as a draft:
// only title and company are required, the rest may still be blank.
type DraftForm struct {
	ID            uint   `json:"id"`
	Title         string `json:"title" binding:"required"`
	Company       string `json:"company" binding:"required"`
	Description   string `json:"description"`
	ContactPerson string `json:"contact_person"`
	URL           string `json:"url" binding:"omitempty,url"`
	Deadline      string `json:"deadline" binding:"omitempty,datetime=2006-01-02"`
}

// JobForm widens a draft back into the full form shape.
func (d DraftForm) JobForm() JobForm {
	return JobForm{
		ID:            d.ID,
		Title:         d.Title,
		Company:       d.Company,
		Description:   d.Description,
		ContactPerson: d.ContactPerson,
		URL:           d.URL,
		Deadline:      d.Deadline,
	}
}

type LetterEditRequest struct {
	Content string `json:"content" binding:"required"`
}

type GenerateRequest struct {
	Job    JobForm `json:"job" binding:"required"`
	Locale string  `json:"locale"`
}
