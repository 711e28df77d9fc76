package legacy

// scrapeFile is the on-disk shape produced by the scrape step.
type scrapeFile struct {
	Freelancers []scrapedFreelancer `json:"freelancers"`
}

type scrapedFreelancer struct {
	Name         string   `json:"name"`
	Slug         string   `json:"slug"`
	Bio          *string  `json:"bio"`
	Categories   []string `json:"categories"`
	ImageURL     *string  `json:"image_url"`
	CVURL        *string  `json:"cv_url"`
	EquipmentURL *string  `json:"equipment_url"`
	Website      *string  `json:"website"`
	Instagram    *string  `json:"instagram"`
	IMDB         *string  `json:"imdb"`
	LinkedIn     *string  `json:"linkedin"`
}
