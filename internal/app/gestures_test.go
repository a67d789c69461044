package service_test

import (
	"context"
	"testing"

	service "github.com/okian/kairosync/internal/app"
	"github.com/okian/kairosync/internal/domain/types"
	. "github.com/smartystreets/goconvey/convey"
)

func TestService_Helix(t *testing.T) {
	ctx := context.Background()

	Convey("Given a live service at noon", t, func() {
		svc := newService()

		Convey("When a drag starts", func() {
			So(svc.BeginDrag(ctx, 500), ShouldBeTrue)

			Convey("Then a second start is refused", func() {
				So(svc.BeginDrag(ctx, 0), ShouldBeFalse)
			})

			Convey("And moving down one row goes back an hour", func() {
				utc, ok := svc.Drag(ctx, 660)
				So(ok, ShouldBeTrue)
				So(utc, ShouldEqual, 660)
				So(svc.Snapshot(ctx).Live, ShouldBeFalse)
			})

			Convey("And release snaps to the quarter hour", func() {
				_, _ = svc.Drag(ctx, 670)
				So(svc.Snapshot(ctx).SelectedUTC, ShouldEqual, 656.25)

				snapped, ended := svc.EndDrag(ctx)
				So(ended, ShouldBeTrue)
				So(snapped, ShouldEqual, 660)
				So(svc.Snapshot(ctx).SelectedUTC, ShouldEqual, 660)
				So(svc.Snapshot(ctx).Dragging, ShouldBeFalse)
			})
		})

		Convey("When no drag is in progress", func() {
			utc, moved := svc.Drag(ctx, 100)
			_, ended := svc.EndDrag(ctx)

			Convey("Then nothing moves and no end is signalled", func() {
				So(moved, ShouldBeFalse)
				So(utc, ShouldEqual, 720)
				So(ended, ShouldBeFalse)
				So(svc.Snapshot(ctx).Live, ShouldBeTrue)
			})
		})
	})
}

func TestService_Dial(t *testing.T) {
	ctx := context.Background()

	Convey("Given a service whose dial shows the +8 local user", t, func() {
		svc := newService()

		Convey("When the pointer moves without a gesture", func() {
			utc, ok := svc.DialMove(ctx, 200, 100, 100, 100)

			Convey("Then the selected minute holds", func() {
				So(ok, ShouldBeFalse)
				So(utc, ShouldEqual, 720)
			})
		})

		Convey("When a gesture points at 06:00 local", func() {
			So(svc.DialBegin(ctx), ShouldBeTrue)
			So(svc.DialBegin(ctx), ShouldBeFalse)
			utc, ok := svc.DialMove(ctx, 200, 100, 100, 100)

			Convey("Then the shared minute is 22:00 UTC", func() {
				So(ok, ShouldBeTrue)
				So(utc, ShouldEqual, 1320)
				snap := svc.Snapshot(ctx)
				So(snap.SelectedUTC, ShouldEqual, 1320)
				So(snap.Live, ShouldBeFalse)
			})

			Convey("And the gesture ends once", func() {
				So(svc.DialEnd(ctx), ShouldBeTrue)
				So(svc.DialEnd(ctx), ShouldBeFalse)
			})
		})

		Convey("When local text is typed on the dial", func() {
			utc, err := svc.DialEnterText(ctx, "07:15")

			Convey("Then the offset is subtracted and the passive clock agrees", func() {
				So(err, ShouldBeNil)
				So(utc, ShouldEqual, 1395)
				role, minutes := svc.PassiveTime(ctx)
				So(role, ShouldEqual, types.RoleRemote)
				So(minutes, ShouldEqual, 1395)
			})
		})

		Convey("When invalid text is typed", func() {
			_, err := svc.DialEnterText(ctx, "7")

			Convey("Then it is rejected and nothing changes", func() {
				So(err, ShouldWrap, service.ErrInvalidTime)
				So(svc.Snapshot(ctx).SelectedUTC, ShouldEqual, 720)
			})
		})

		Convey("When the remote user is selected", func() {
			tr, err := svc.DialSelect(ctx, types.RoleRemote)

			Convey("Then the dial turns the short way to the remote noon", func() {
				So(err, ShouldBeNil)
				So(tr.Animate, ShouldBeTrue)
				So(tr.From, ShouldEqual, 300)
				So(tr.To, ShouldEqual, 180)
				role, minutes := svc.PassiveTime(ctx)
				So(role, ShouldEqual, types.RoleLocal)
				So(minutes, ShouldEqual, 1200)
			})
		})

		Convey("When an unknown role is selected", func() {
			_, err := svc.DialSelect(ctx, types.Role("moon"))

			Convey("Then it is rejected", func() {
				So(err, ShouldWrap, service.ErrInvalidRole)
			})
		})
	})
}
