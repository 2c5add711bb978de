package sequence

import (
	"errors"
	"log"

	"github.com/AnasElkhodary-69/sales-master-sub001/models"
)

// AutoEnroller sweeps contacts into campaigns that opted into automatic
// enrollment. Each run enrolls every reachable contact that has no
// enrollment in the campaign yet, going through the regular scheduler so
// classification, template resolution and delay chaining all apply.
type AutoEnroller struct {
	Contacts  ContactStore
	Campaigns CampaignStore
	Scheduler *Scheduler
	// BatchSize caps enrollments per campaign per run. <= 0 means no cap.
	BatchSize int
	Logger    *log.Logger
}

func NewAutoEnroller(contacts ContactStore, campaigns CampaignStore, scheduler *Scheduler, batchSize int, logger *log.Logger) *AutoEnroller {
	return &AutoEnroller{
		Contacts:  contacts,
		Campaigns: campaigns,
		Scheduler: scheduler,
		BatchSize: batchSize,
		Logger:    logger,
	}
}

// Run processes every auto-enroll campaign and returns how many contacts
// were enrolled in total. A failing campaign is logged and skipped so the
// others still get their pass.
func (a *AutoEnroller) Run() (int, error) {
	campaigns, err := a.Campaigns.FindAutoEnrollCampaigns()
	if err != nil {
		return 0, err
	}

	total := 0
	for i := range campaigns {
		n, err := a.enrollCampaign(&campaigns[i])
		if err != nil {
			if a.Logger != nil {
				a.Logger.Printf("auto-enrollment failed for campaign %d: %v", campaigns[i].ID, err)
			}
			continue
		}
		total += n
	}
	return total, nil
}

func (a *AutoEnroller) enrollCampaign(campaign *models.Campaign) (int, error) {
	contacts, err := a.Contacts.FindEnrollable(campaign.ID, a.BatchSize)
	if err != nil {
		return 0, err
	}
	if len(contacts) == 0 {
		return 0, nil
	}

	enrolled := 0
	for i := range contacts {
		_, err := a.Scheduler.Enroll(contacts[i].ID, campaign.ID, "")
		switch {
		case err == nil:
			enrolled++
		case errors.Is(err, ErrAlreadyEnrolled), errors.Is(err, ErrContactUnreachable):
			// Lost a race with a manual enrollment, or the contact bounced
			// between the query and the enroll. Nothing to do.
		default:
			if a.Logger != nil {
				a.Logger.Printf("auto-enrollment of contact %d into campaign %d failed: %v", contacts[i].ID, campaign.ID, err)
			}
		}
	}

	if enrolled > 0 && a.Logger != nil {
		a.Logger.Printf("auto-enrolled %d contacts into campaign %q", enrolled, campaign.Name)
	}
	return enrolled, nil
}
