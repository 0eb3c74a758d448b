package policy

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"fleet_dispatch/internal/apperr"
	"fleet_dispatch/internal/models"
)

var (
	admin      = Actor{ID: "u-admin", Role: models.RoleAdmin}
	dispatcher = Actor{ID: "u-disp", Role: models.RoleDispatcher}
	driver     = Actor{ID: "u-drv", Role: models.RoleDriver}
	other      = "u-other"
)

func TestDecide(t *testing.T) {
	tests := []struct {
		name  string
		actor Actor
		tgt   Target
		want  Decision
	}{
		{"admin deletes vehicle", admin, Target{Kind: KindVehicle, Op: OpDelete}, Allow},
		{"admin creates user", admin, Target{Kind: KindUser, Op: OpCreate}, Allow},
		{"admin reads dashboard", admin, Target{Kind: KindDashboard, Op: OpRead}, Allow},

		{"dispatcher lists users", dispatcher, Target{Kind: KindUser, Op: OpList}, Allow},
		{"dispatcher reads other user", dispatcher, Target{Kind: KindUser, Op: OpRead, OwnerID: other}, Allow},
		{"dispatcher updates self", dispatcher, Target{Kind: KindUser, Op: OpUpdate, OwnerID: dispatcher.ID}, Allow},
		{"dispatcher updates other user", dispatcher, Target{Kind: KindUser, Op: OpUpdate, OwnerID: other}, Deny},
		{"dispatcher creates user", dispatcher, Target{Kind: KindUser, Op: OpCreate}, Deny},
		{"dispatcher creates driver", dispatcher, Target{Kind: KindDriver, Op: OpCreate}, Allow},
		{"dispatcher updates any job", dispatcher, Target{Kind: KindJob, Op: OpUpdate, OwnerID: other}, Allow},
		{"dispatcher deletes vehicle", dispatcher, Target{Kind: KindVehicle, Op: OpDelete}, Deny},
		{"dispatcher reads dashboard", dispatcher, Target{Kind: KindDashboard, Op: OpRead}, Allow},
		{"dispatcher reads other's notification", dispatcher, Target{Kind: KindNotification, Op: OpRead, OwnerID: other}, Deny},

		{"driver lists drivers", driver, Target{Kind: KindDriver, Op: OpList}, AllowOwn},
		{"driver lists jobs", driver, Target{Kind: KindJob, Op: OpList}, AllowOwn},
		{"driver lists users", driver, Target{Kind: KindUser, Op: OpList}, Deny},
		{"driver lists vehicles", driver, Target{Kind: KindVehicle, Op: OpList}, Deny},
		{"driver reads own user", driver, Target{Kind: KindUser, Op: OpRead, OwnerID: driver.ID}, Allow},
		{"driver reads other user", driver, Target{Kind: KindUser, Op: OpRead, OwnerID: other}, Deny},
		{"driver reads assigned vehicle", driver, Target{Kind: KindVehicle, Op: OpRead, OwnerID: driver.ID}, Allow},
		{"driver reads unassigned vehicle", driver, Target{Kind: KindVehicle, Op: OpRead}, Deny},
		{"driver creates job", driver, Target{Kind: KindJob, Op: OpCreate}, Deny},
		{"driver updates own job", driver, Target{Kind: KindJob, Op: OpUpdate, OwnerID: driver.ID}, Allow},
		{"driver updates own driver record", driver, Target{Kind: KindDriver, Op: OpUpdate, OwnerID: driver.ID}, Allow},
		{"driver creates driver", driver, Target{Kind: KindDriver, Op: OpCreate}, Deny},
		{"driver reads dashboard", driver, Target{Kind: KindDashboard, Op: OpRead}, Deny},

		{"unknown role", Actor{ID: "x", Role: "auditor"}, Target{Kind: KindJob, Op: OpList}, Deny},
		{"unknown kind", dispatcher, Target{Kind: "invoice", Op: OpList}, Deny},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Decide(tt.actor, tt.tgt))
		})
	}
}

// A driver can never read, update or delete a job assigned to someone else,
// whatever the owner id looks like.
func TestDriverDeniedOtherDriversJobs(t *testing.T) {
	owners := []string{"", other, "U-DRV", driver.ID + " ", "u-drv2"}
	for _, op := range []Op{OpRead, OpUpdate, OpDelete, OpCreate} {
		for _, owner := range owners {
			assert.Equal(t, Deny, Decide(driver, Target{Kind: KindJob, Op: op, OwnerID: owner}),
				"op=%s owner=%q", op, owner)
		}
	}
}

func TestCheckReturnsForbidden(t *testing.T) {
	err := Check(driver, Target{Kind: KindVehicle, Op: OpList})
	assert.Equal(t, apperr.Forbidden, apperr.KindOf(err))
	assert.NoError(t, Check(driver, Target{Kind: KindJob, Op: OpList}))
}

func TestCanChangeRole(t *testing.T) {
	assert.True(t, CanChangeRole(admin))
	assert.False(t, CanChangeRole(dispatcher))
	assert.False(t, CanChangeRole(driver))
}
