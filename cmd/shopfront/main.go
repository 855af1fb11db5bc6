package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"text/tabwriter"
	"time"

	"shopfront/internal/api"
	"shopfront/internal/cart"
	"shopfront/internal/catalog"
	"shopfront/internal/checkout"
	"shopfront/internal/config"
	"shopfront/internal/domain"
	"shopfront/internal/order"
	"shopfront/internal/session"

	"github.com/shopspring/decimal"
)

const usage = `Usage: shopfront <command> [flags]

Account:
  register      Create an account
  login         Log in and persist the session token
  logout        Log out and discard the token
  whoami        Show the current account

Catalog:
  products      List products
  product       Show one product

Cart:
  cart          Show the cart
  cart-add      Add a product to the cart
  cart-remove   Remove a product from the cart
  cart-clear    Empty the cart

Orders:
  checkout      Place an order from the cart
  orders        List your orders
  order         Show one order

Admin:
  admin-orders  List every order
  set-status    Change an order's status
  add-product   Create a product
  upload-image  Attach an image to a product
`

type app struct {
	session  *session.Store
	cart     *cart.Store
	catalog  *catalog.Service
	orders   *order.Service
	checkout *checkout.Coordinator
	logger   *log.Logger
}

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	cfg, err := config.LoadClient(os.Getenv("SHOPFRONT_CONFIG"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "shopfront: %v\n", err)
		os.Exit(1)
	}

	logWriter := io.Discard
	if os.Getenv("SHOPFRONT_DEBUG") != "" {
		logWriter = os.Stderr
	}
	logger := log.New(logWriter, "[shopfront] ", log.LstdFlags|log.LUTC)

	a, err := buildApp(cfg, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "shopfront: %v\n", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Timeout()+5*time.Second)
	defer cancel()

	if err := a.run(ctx, os.Args[1], os.Args[2:]); err != nil {
		fmt.Fprintf(os.Stderr, "shopfront: %v\n", err)
		os.Exit(1)
	}
}

func buildApp(cfg config.ClientConfig, logger *log.Logger) (*app, error) {
	tokenPath := cfg.TokenPath
	if tokenPath == "" {
		tokenPath = session.DefaultTokenPath()
	}
	creds, err := session.LoadCredentials(tokenPath)
	if err != nil {
		return nil, fmt.Errorf("load credentials: %w", err)
	}

	client := api.NewClient(cfg.BaseURL,
		api.WithTokenSource(creds),
		api.WithTimeout(cfg.Timeout()),
		api.WithLogger(logger),
	)

	sess := session.New(client, creds, logger)
	cartStore := cart.New(client, sess, logger)

	return &app{
		session:  sess,
		cart:     cartStore,
		catalog:  catalog.New(client, logger),
		orders:   order.New(client, logger),
		checkout: checkout.New(client, cartStore, logger),
		logger:   logger,
	}, nil
}

func (a *app) run(ctx context.Context, command string, args []string) error {
	switch command {
	case "register":
		return a.register(ctx, args)
	case "login":
		return a.login(ctx, args)
	case "logout":
		a.session.Restore(ctx)
		return a.session.Logout(ctx)
	case "whoami":
		return a.whoami(ctx)
	case "products":
		return a.listProducts(ctx, args)
	case "product":
		return a.showProduct(ctx, args)
	case "cart":
		return a.showCart(ctx)
	case "cart-add":
		return a.cartAdd(ctx, args)
	case "cart-remove":
		return a.cartRemove(ctx, args)
	case "cart-clear":
		return a.cartClear(ctx)
	case "checkout":
		return a.placeOrder(ctx, args)
	case "orders":
		return a.listOrders(ctx)
	case "order":
		return a.showOrder(ctx, args)
	case "admin-orders":
		return a.adminOrders(ctx)
	case "set-status":
		return a.setStatus(ctx, args)
	case "add-product":
		return a.addProduct(ctx, args)
	case "upload-image":
		return a.uploadImage(ctx, args)
	case "help", "-h", "--help":
		fmt.Print(usage)
		return nil
	default:
		fmt.Fprint(os.Stderr, usage)
		return fmt.Errorf("unknown command %q", command)
	}
}

func (a *app) register(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("register", flag.ExitOnError)
	name := fs.String("name", "", "Display name")
	email := fs.String("email", "", "Email address")
	password := fs.String("password", "", "Password")
	fs.Parse(args)

	user, err := a.session.Register(ctx, *name, *email, *password, domain.RoleCustomer)
	if err != nil {
		return err
	}
	fmt.Printf("Registered %s (%s). Run `shopfront login` to sign in.\n", user.Name, user.Email)
	return nil
}

func (a *app) login(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("login", flag.ExitOnError)
	email := fs.String("email", "", "Email address")
	password := fs.String("password", "", "Password")
	fs.Parse(args)

	user, err := a.session.Login(ctx, *email, *password)
	if err != nil {
		return err
	}
	fmt.Printf("Logged in as %s (%s)\n", user.Name, user.Role)
	return nil
}

func (a *app) whoami(ctx context.Context) error {
	a.session.Restore(ctx)
	user := a.session.Current()
	if user == nil {
		fmt.Println("Not logged in")
		return nil
	}
	fmt.Printf("%s <%s> role=%s\n", user.Name, user.Email, user.Role)
	return nil
}

func (a *app) listProducts(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("products", flag.ExitOnError)
	search := fs.String("search", "", "Filter by name")
	category := fs.String("category", "", "Filter by category")
	skip := fs.Int("skip", 0, "Offset into the listing")
	limit := fs.Int("limit", 0, "Page size")
	fs.Parse(args)

	a.session.Restore(ctx)
	products, err := a.catalog.List(ctx, catalog.ListParams{
		Search:   *search,
		Category: *category,
		Skip:     *skip,
		Limit:    *limit,
	})
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tPRICE\tSTOCK\tCATEGORY")
	for _, p := range products {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\n", p.ID, p.Name, p.Price.StringFixed(2), p.Stock, p.Category)
	}
	return w.Flush()
}

func (a *app) showProduct(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("product", flag.ExitOnError)
	id := fs.String("id", "", "Product id")
	fs.Parse(args)

	a.session.Restore(ctx)
	p, err := a.catalog.Get(ctx, *id)
	if err != nil {
		return err
	}
	fmt.Printf("%s\n  price: %s\n  stock: %d\n  category: %s\n", p.Name, p.Price.StringFixed(2), p.Stock, p.Category)
	if p.Description != "" {
		fmt.Printf("  %s\n", p.Description)
	}
	if p.ImageURL != "" {
		fmt.Printf("  image: %s\n", p.ImageURL)
	}
	return nil
}

func (a *app) showCart(ctx context.Context) error {
	a.session.Restore(ctx)
	c, err := a.cart.Fetch(ctx)
	if err != nil {
		return err
	}
	printCart(c)
	return nil
}

func (a *app) cartAdd(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("cart-add", flag.ExitOnError)
	productID := fs.String("product", "", "Product id")
	qty := fs.Int("qty", 1, "Quantity to add")
	fs.Parse(args)

	a.session.Restore(ctx)
	c, err := a.cart.AddItem(ctx, *productID, *qty)
	if err != nil {
		return err
	}
	printCart(c)
	return nil
}

func (a *app) cartRemove(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("cart-remove", flag.ExitOnError)
	productID := fs.String("product", "", "Product id")
	fs.Parse(args)

	a.session.Restore(ctx)
	c, err := a.cart.RemoveItem(ctx, *productID)
	if err != nil {
		return err
	}
	printCart(c)
	return nil
}

func (a *app) cartClear(ctx context.Context) error {
	a.session.Restore(ctx)
	if _, err := a.cart.Clear(ctx); err != nil {
		return err
	}
	fmt.Println("Cart cleared")
	return nil
}

func (a *app) placeOrder(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("checkout", flag.ExitOnError)
	line1 := fs.String("line1", "", "Address line 1")
	line2 := fs.String("line2", "", "Address line 2")
	city := fs.String("city", "", "City")
	state := fs.String("state", "", "State or province")
	postal := fs.String("postal", "", "Postal code")
	country := fs.String("country", "", "Country")
	fs.Parse(args)

	a.session.Restore(ctx)
	if _, err := a.cart.Fetch(ctx); err != nil {
		return err
	}

	result, err := a.checkout.Checkout(ctx, domain.ShippingAddress{
		AddressLine1: *line1,
		AddressLine2: *line2,
		City:         *city,
		State:        *state,
		PostalCode:   *postal,
		Country:      *country,
	})
	if err != nil {
		return err
	}

	fmt.Printf("Order %s placed, total %s\n", result.Order.ID, result.Order.Total.StringFixed(2))
	if result.ClearErr != nil {
		fmt.Printf("Warning: cart was not cleared: %v\n", result.ClearErr.Err)
	}
	return nil
}

func (a *app) listOrders(ctx context.Context) error {
	a.session.Restore(ctx)
	orders, err := a.orders.List(ctx)
	if err != nil {
		return err
	}
	printOrders(orders)
	return nil
}

func (a *app) showOrder(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("order", flag.ExitOnError)
	id := fs.String("id", "", "Order id")
	fs.Parse(args)

	a.session.Restore(ctx)
	o, err := a.orders.Get(ctx, *id)
	if err != nil {
		return err
	}

	fmt.Printf("Order %s  status=%s  total=%s  placed=%s\n", o.ID, o.Status, o.Total.StringFixed(2), o.CreatedAt.Format(time.RFC3339))
	for _, item := range o.Items {
		fmt.Printf("  %dx %s @ %s\n", item.Quantity, item.Name, item.Price.StringFixed(2))
	}
	addr := o.ShippingAddress
	fmt.Printf("  ship to: %s, %s, %s %s, %s\n", addr.AddressLine1, addr.City, addr.State, addr.PostalCode, addr.Country)
	return nil
}

func (a *app) adminOrders(ctx context.Context) error {
	a.session.Restore(ctx)
	orders, err := a.orders.ListAll(ctx)
	if err != nil {
		return err
	}
	printOrders(orders)
	return nil
}

func (a *app) setStatus(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("set-status", flag.ExitOnError)
	id := fs.String("id", "", "Order id")
	status := fs.String("status", "", "New status")
	fs.Parse(args)

	next, err := domain.ParseOrderStatus(*status)
	if err != nil {
		return err
	}

	a.session.Restore(ctx)
	current, err := a.orders.Get(ctx, *id)
	if err != nil {
		return err
	}

	machine := order.NewStatusMachine(a.orders, *current)
	updated, err := machine.Apply(ctx, next)
	if err != nil {
		return err
	}
	fmt.Printf("Order %s: %s -> %s\n", updated.ID, current.Status, updated.Status)
	return nil
}

func (a *app) addProduct(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("add-product", flag.ExitOnError)
	name := fs.String("name", "", "Product name")
	description := fs.String("description", "", "Description")
	price := fs.String("price", "", "Price, e.g. 19.99")
	category := fs.String("category", "", "Category")
	stock := fs.Int("stock", 0, "Units in stock")
	imageURL := fs.String("image-url", "", "Image URL")
	fs.Parse(args)

	parsedPrice, err := decimal.NewFromString(*price)
	if err != nil {
		return fmt.Errorf("invalid price %q", *price)
	}

	a.session.Restore(ctx)
	p, err := a.catalog.Create(ctx, catalog.ProductInput{
		Name:        *name,
		Description: *description,
		Price:       parsedPrice,
		Category:    *category,
		Stock:       *stock,
		ImageURL:    *imageURL,
	})
	if err != nil {
		return err
	}
	fmt.Printf("Created product %s (%s)\n", p.Name, p.ID)
	return nil
}

func (a *app) uploadImage(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("upload-image", flag.ExitOnError)
	id := fs.String("id", "", "Product id")
	file := fs.String("file", "", "Path to the image file")
	fs.Parse(args)

	f, err := os.Open(*file)
	if err != nil {
		return err
	}
	defer f.Close()

	a.session.Restore(ctx)
	url, err := a.catalog.UploadImage(ctx, *id, filepath.Base(*file), f)
	if err != nil {
		return err
	}
	fmt.Printf("Image uploaded: %s\n", url)
	return nil
}

func printCart(c domain.Cart) {
	if len(c.Items) == 0 {
		fmt.Println("Cart is empty")
		return
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "PRODUCT\tNAME\tQTY\tPRICE\tLINE")
	for _, item := range c.Items {
		line := item.Price.Mul(decimal.NewFromInt(int64(item.Quantity)))
		fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%s\n", item.ProductID, item.Name, item.Quantity, item.Price.StringFixed(2), line.StringFixed(2))
	}
	w.Flush()
	fmt.Printf("Total: %s (%d items)\n", c.Total().StringFixed(2), c.ItemCount())
}

func printOrders(orders []domain.Order) {
	if len(orders) == 0 {
		fmt.Println("No orders")
		return
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSTATUS\tTOTAL\tITEMS\tPLACED")
	for _, o := range orders {
		count := 0
		for _, item := range o.Items {
			count += item.Quantity
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\n", o.ID, o.Status, o.Total.StringFixed(2), count, o.CreatedAt.Format(time.RFC3339))
	}
	w.Flush()
}
