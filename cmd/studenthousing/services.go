package main

import (
	"github.com/Sokol111/student-housing/internal/auth"
	"github.com/Sokol111/student-housing/internal/booking"
	"github.com/Sokol111/student-housing/internal/housing"
	"github.com/Sokol111/student-housing/internal/notification"
	"github.com/Sokol111/student-housing/pkg/modules"
	"github.com/spf13/cobra"
	"go.uber.org/fx"
)

type serviceCommand struct {
	use    string
	short  string
	svc    modules.Service
	module func() fx.Option
}

var services = []serviceCommand{
	{
		use:    "auth",
		short:  "Run the auth service (register, login, verify)",
		svc:    modules.Service{Name: "auth-service", Label: "Auth Service", Port: 3001, Persistence: true},
		module: func() fx.Option { return auth.NewAuthModule() },
	},
	{
		use:    "housing",
		short:  "Run the housing service (listings)",
		svc:    modules.Service{Name: "housing-service", Label: "Housing Service", Port: 3002, Persistence: true},
		module: func() fx.Option { return housing.NewHousingModule() },
	},
	{
		use:    "booking",
		short:  "Run the booking service",
		svc:    modules.Service{Name: "booking-service", Label: "Booking Service", Port: 3003, Persistence: true},
		module: func() fx.Option { return booking.NewBookingModule() },
	},
	{
		use:    "notification",
		short:  "Run the notification service (consumes booking and auth events)",
		svc:    modules.Service{Name: "notification-service", Label: "Notification Service", Port: 3004},
		module: func() fx.Option { return notification.NewNotificationModule() },
	},
}

func newServiceCmd(sc serviceCommand, flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   sc.use,
		Short: sc.short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app := fx.New(newApp(sc, flags))
			if err := app.Err(); err != nil {
				return err
			}
			app.Run()
			return nil
		},
	}
}

func newApp(sc serviceCommand, flags *rootFlags) fx.Option {
	var coreOpts []modules.CoreOption
	if flags.port > 0 {
		coreOpts = append(coreOpts, modules.WithPort(flags.port))
	}
	return fx.Options(
		modules.NewServiceModule(sc.svc, coreOpts...),
		sc.module(),
	)
}
