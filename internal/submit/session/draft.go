package session

import (
	"scoutly/internal/models"
	"scoutly/internal/submit/committer"
	"scoutly/internal/submit/media"
	"scoutly/internal/submit/signals"
)

// Draft is the not-yet-persisted submission. It is owned by one Session and
// never shared.
type Draft struct {
	photo      *media.Photo
	latitude   *float64
	longitude  *float64
	contractor signals.Set
	realEstate signals.Set
	occupancy  models.OccupancyStatus
	notes      string
}

func NewDraft() *Draft {
	return &Draft{
		contractor: signals.NewSet(signals.Contractor),
		realEstate: signals.NewSet(signals.RealEstate),
	}
}

func (d *Draft) HasPhoto() bool {
	return d.photo != nil && len(d.photo.Data) > 0
}

func (d *Draft) HasLocation() bool {
	return d.latitude != nil && d.longitude != nil
}

func (d *Draft) SignalCount() int {
	return d.contractor.Len() + d.realEstate.Len()
}

func (d *Draft) set(c signals.Category) signals.Set {
	if c == signals.RealEstate {
		return d.realEstate
	}
	return d.contractor
}

func (d *Draft) setLocation(lat, lon float64) {
	d.latitude = &lat
	d.longitude = &lon
}

func (d *Draft) input() committer.Input {
	return committer.Input{
		Photo:             d.photo,
		Latitude:          d.latitude,
		Longitude:         d.longitude,
		ContractorSignals: d.contractor.Ordered(),
		RealEstateSignals: d.realEstate.Ordered(),
		OccupancyStatus:   d.occupancy,
		Notes:             d.notes,
	}
}

// View is a read-only copy of the draft for display.
type View struct {
	PhotoPreviewURL   string                 `json:"photoPreviewUrl,omitempty"`
	PhotoSource       media.Source           `json:"photoSource,omitempty"`
	Latitude          *float64               `json:"latitude,omitempty"`
	Longitude         *float64               `json:"longitude,omitempty"`
	ContractorSignals []string               `json:"contractorSignals"`
	RealEstateSignals []string               `json:"realEstateSignals"`
	OccupancyStatus   models.OccupancyStatus `json:"occupancyStatus,omitempty"`
	Notes             string                 `json:"notes,omitempty"`
}

func (d *Draft) view() View {
	v := View{
		ContractorSignals: d.contractor.Ordered(),
		RealEstateSignals: d.realEstate.Ordered(),
		OccupancyStatus:   d.occupancy,
		Notes:             d.notes,
	}
	if d.photo != nil {
		v.PhotoPreviewURL = d.photo.PreviewURL
		v.PhotoSource = d.photo.Source
	}
	if d.latitude != nil {
		lat := *d.latitude
		v.Latitude = &lat
	}
	if d.longitude != nil {
		lon := *d.longitude
		v.Longitude = &lon
	}
	return v
}
