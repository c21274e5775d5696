package main

import (
	"context"
	"fmt"
	"os"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"

	"procurement/pkg/common/config"
	"procurement/pkg/domain/model"
	"procurement/pkg/domain/service"
	"procurement/pkg/export"
	"procurement/pkg/gateway"
	"procurement/pkg/payment"
)

// logDispatcher is the CLI's event sink; a UI would subscribe instead.
type logDispatcher struct{}

func (logDispatcher) Dispatch(event service.Event) error {
	log.WithField("event", event.Type()).Debug("domain event")
	return nil
}

func loginFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "username", Aliases: []string{"u"}, Required: true},
		&cli.StringFlag{Name: "password", Aliases: []string{"p"}, Required: true},
	}
}

func dial(ctx context.Context, cfg *config.Config, c *cli.Context) (*gateway.Client, error) {
	client, err := gateway.New(cfg.BackendURL)
	if err != nil {
		return nil, err
	}
	if err := client.Login(ctx, c.String("username"), c.String("password")); err != nil {
		return nil, err
	}
	return client, nil
}

func retailerCommand(cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:  "retailer",
		Usage: "retailer dashboard operations",
		Flags: loginFlags(),
		Subcommands: []*cli.Command{
			{
				Name:  "requests",
				Usage: "list my product requests",
				Action: func(c *cli.Context) error {
					ctx := c.Context
					client, err := dial(ctx, cfg, c)
					if err != nil {
						return err
					}
					requests := service.NewRequestService(model.RoleRetailer, gateway.Retailer{C: client}, logDispatcher{})
					if err := requests.Refresh(ctx); err != nil {
						return err
					}
					printRequests(requests.Requests())
					return nil
				},
			},
			{
				Name:  "request",
				Usage: "send a new product request to a distributor",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "product", Required: true},
					&cli.StringFlag{Name: "distributor", Required: true},
					&cli.IntFlag{Name: "quantity", Required: true},
					&cli.Int64Flag{Name: "price", Usage: "total price in cents (0 = server computes)"},
				},
				Action: func(c *cli.Context) error {
					ctx := c.Context
					client, err := dial(ctx, cfg, c)
					if err != nil {
						return err
					}
					productID, err := uuid.Parse(c.String("product"))
					if err != nil {
						return err
					}
					distributorID, err := uuid.Parse(c.String("distributor"))
					if err != nil {
						return err
					}
					requests := service.NewRequestService(model.RoleRetailer, gateway.Retailer{C: client}, logDispatcher{})
					request, err := requests.Create(ctx, productID, distributorID, c.Int("quantity"), c.Int64("price"))
					if err != nil {
						return err
					}
					fmt.Printf("created request %s (%s)\n", request.ID, request.Status)
					return nil
				},
			},
			{
				Name:  "delete-request",
				Usage: "delete a pending request",
				Flags: []cli.Flag{&cli.StringFlag{Name: "id", Required: true}},
				Action: func(c *cli.Context) error {
					ctx := c.Context
					client, err := dial(ctx, cfg, c)
					if err != nil {
						return err
					}
					id, err := uuid.Parse(c.String("id"))
					if err != nil {
						return err
					}
					requests := service.NewRequestService(model.RoleRetailer, gateway.Retailer{C: client}, logDispatcher{})
					if err := requests.Refresh(ctx); err != nil {
						return err
					}
					return requests.Delete(ctx, id)
				},
			},
			{
				Name:  "orders",
				Usage: "list my orders",
				Action: func(c *cli.Context) error {
					ctx := c.Context
					client, err := dial(ctx, cfg, c)
					if err != nil {
						return err
					}
					orders := service.NewOrderService(model.RoleRetailer, gateway.Retailer{C: client}, logDispatcher{})
					if err := orders.Refresh(ctx); err != nil {
						return err
					}
					printOrders(orders.Orders())
					return nil
				},
			},
			{
				Name:  "pay",
				Usage: "pay for a pending order",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "order", Required: true},
					&cli.StringFlag{Name: "card-number", Required: true},
					&cli.IntFlag{Name: "exp-month", Value: 12},
					&cli.IntFlag{Name: "exp-year", Value: 2030},
					&cli.StringFlag{Name: "cvc", Value: "000"},
				},
				Action: func(c *cli.Context) error {
					ctx := c.Context
					client, err := dial(ctx, cfg, c)
					if err != nil {
						return err
					}
					orderID, err := uuid.Parse(c.String("order"))
					if err != nil {
						return err
					}

					orders := service.NewOrderService(model.RoleRetailer, gateway.Retailer{C: client}, logDispatcher{})
					if err := orders.Refresh(ctx); err != nil {
						return err
					}
					order, err := orders.Order(orderID)
					if err != nil {
						return err
					}

					processor := payment.New(cfg.PaymentURL, cfg.PaymentKey)
					payments := service.NewPaymentService(gateway.Retailer{C: client}, processor, orders, cfg.Currency, logDispatcher{})

					intent, err := payments.Initiate(ctx, orderID, order.PriceCents)
					if err != nil {
						return err
					}
					card := model.CardDetails{
						Number:   c.String("card-number"),
						ExpMonth: c.Int("exp-month"),
						ExpYear:  c.Int("exp-year"),
						CVC:      c.String("cvc"),
					}
					paid, err := payments.Confirm(ctx, intent, card)
					if err != nil {
						return err
					}
					fmt.Printf("order %s is now %s\n", paid.Number, paid.Status)
					return nil
				},
			},
			{
				Name:  "export",
				Usage: "export requests or orders as CSV",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "what", Value: "requests", Usage: "requests|orders"},
					&cli.StringFlag{Name: "out", Usage: "output file (default stdout)"},
				},
				Action: func(c *cli.Context) error {
					ctx := c.Context
					client, err := dial(ctx, cfg, c)
					if err != nil {
						return err
					}

					out := os.Stdout
					if path := c.String("out"); path != "" {
						f, err := os.Create(path)
						if err != nil {
							return err
						}
						defer f.Close()
						out = f
					}

					switch c.String("what") {
					case "orders":
						orders := service.NewOrderService(model.RoleRetailer, gateway.Retailer{C: client}, logDispatcher{})
						if err := orders.Refresh(ctx); err != nil {
							return err
						}
						return export.Orders(out, orders.Orders())
					default:
						requests := service.NewRequestService(model.RoleRetailer, gateway.Retailer{C: client}, logDispatcher{})
						if err := requests.Refresh(ctx); err != nil {
							return err
						}
						return export.Requests(out, requests.Requests())
					}
				},
			},
		},
	}
}

func distributorCommand(cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:  "distributor",
		Usage: "distributor dashboard operations",
		Flags: loginFlags(),
		Subcommands: []*cli.Command{
			{
				Name:  "requests",
				Usage: "list incoming requests",
				Action: func(c *cli.Context) error {
					ctx := c.Context
					client, err := dial(ctx, cfg, c)
					if err != nil {
						return err
					}
					requests := service.NewRequestService(model.RoleDistributor, gateway.Distributor{C: client}, logDispatcher{})
					orders := service.NewOrderService(model.RoleDistributor, gateway.Distributor{C: client}, logDispatcher{})
					if err := service.NewReconciler(requests, orders).Sync(ctx); err != nil {
						return err
					}
					printRequests(requests.Requests())
					return nil
				},
			},
			{
				Name:  "accept",
				Flags: []cli.Flag{&cli.StringFlag{Name: "id", Required: true}},
				Action: func(c *cli.Context) error {
					return changeRequestStatus(c, cfg, model.RequestAccepted)
				},
			},
			{
				Name:  "reject",
				Flags: []cli.Flag{&cli.StringFlag{Name: "id", Required: true}},
				Action: func(c *cli.Context) error {
					return changeRequestStatus(c, cfg, model.RequestRejected)
				},
			},
			{
				Name:  "agents",
				Usage: "list delivery agents available for assignment",
				Action: func(c *cli.Context) error {
					ctx := c.Context
					client, err := dial(ctx, cfg, c)
					if err != nil {
						return err
					}
					orders := service.NewOrderService(model.RoleDistributor, gateway.Distributor{C: client}, logDispatcher{})
					agents, err := orders.ListAgents(ctx)
					if err != nil {
						return err
					}
					for _, agent := range agents {
						fmt.Printf("%s\t%s\t%s\n", agent.Username, agent.Email, agent.Phone)
					}
					return nil
				},
			},
			{
				Name:  "generate-order",
				Usage: "convert an accepted request into an order",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "request", Required: true},
					&cli.StringFlag{Name: "agent", Required: true},
				},
				Action: func(c *cli.Context) error {
					ctx := c.Context
					client, err := dial(ctx, cfg, c)
					if err != nil {
						return err
					}
					requestID, err := uuid.Parse(c.String("request"))
					if err != nil {
						return err
					}
					orders := service.NewOrderService(model.RoleDistributor, gateway.Distributor{C: client}, logDispatcher{})
					order, err := orders.Generate(ctx, requestID, c.String("agent"))
					if err != nil {
						return err
					}
					fmt.Printf("generated order %s (%s), assigned to %s\n", order.Number, order.Status, order.DeliveryAgent.Username)
					return nil
				},
			},
			{
				Name:  "orders",
				Usage: "list my orders",
				Action: func(c *cli.Context) error {
					ctx := c.Context
					client, err := dial(ctx, cfg, c)
					if err != nil {
						return err
					}
					orders := service.NewOrderService(model.RoleDistributor, gateway.Distributor{C: client}, logDispatcher{})
					if err := orders.Refresh(ctx); err != nil {
						return err
					}
					printOrders(orders.Orders())
					return nil
				},
			},
		},
	}
}

func changeRequestStatus(c *cli.Context, cfg *config.Config, status model.RequestStatus) error {
	ctx := c.Context
	client, err := dial(ctx, cfg, c)
	if err != nil {
		return err
	}
	id, err := uuid.Parse(c.String("id"))
	if err != nil {
		return err
	}
	requests := service.NewRequestService(model.RoleDistributor, gateway.Distributor{C: client}, logDispatcher{})
	if err := requests.Refresh(ctx); err != nil {
		return err
	}
	request, err := requests.SetStatus(ctx, id, status)
	if err != nil {
		return err
	}
	fmt.Printf("request %s is now %s\n", request.ID, request.Status)
	return nil
}

func deliveryCommand(cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:  "delivery",
		Usage: "delivery agent dashboard operations",
		Flags: loginFlags(),
		Subcommands: []*cli.Command{
			{
				Name:  "orders",
				Usage: "list orders assigned to me",
				Action: func(c *cli.Context) error {
					ctx := c.Context
					client, err := dial(ctx, cfg, c)
					if err != nil {
						return err
					}
					orders := service.NewDeliveryService(gateway.Delivery{C: client}, logDispatcher{})
					if err := orders.Refresh(ctx); err != nil {
						return err
					}
					printOrders(orders.Orders())
					return nil
				},
			},
			{
				Name:  "dispatch",
				Flags: []cli.Flag{&cli.StringFlag{Name: "id", Required: true}},
				Action: func(c *cli.Context) error {
					return advanceOrder(c, cfg, model.OrderDispatched)
				},
			},
			{
				Name:  "deliver",
				Flags: []cli.Flag{&cli.StringFlag{Name: "id", Required: true}},
				Action: func(c *cli.Context) error {
					return advanceOrder(c, cfg, model.OrderDelivered)
				},
			},
		},
	}
}

func advanceOrder(c *cli.Context, cfg *config.Config, target model.OrderStatus) error {
	ctx := c.Context
	client, err := dial(ctx, cfg, c)
	if err != nil {
		return err
	}
	id, err := uuid.Parse(c.String("id"))
	if err != nil {
		return err
	}
	orders := service.NewDeliveryService(gateway.Delivery{C: client}, logDispatcher{})
	if err := orders.Refresh(ctx); err != nil {
		return err
	}
	order, err := orders.Advance(ctx, id, target)
	if err != nil {
		return err
	}
	fmt.Printf("order %s is now %s\n", order.Number, order.Status)
	return nil
}

func printRequests(requests []model.Request) {
	for _, r := range requests {
		fmt.Printf("%s\t%s\tx%d\t%d\t%s\n", r.ID, r.Product.Name, r.Quantity, r.PriceCents, r.Status)
	}
}

func printOrders(orders []model.Order) {
	for _, o := range orders {
		agent := "-"
		if o.DeliveryAgent != nil {
			agent = o.DeliveryAgent.Username
		}
		fmt.Printf("%s\t%s\t%s\tx%d\t%d\t%s\t%s\n", o.ID, o.Number, o.Product.Name, o.Quantity, o.PriceCents, agent, o.Status)
	}
}
