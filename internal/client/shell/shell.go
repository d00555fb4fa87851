// Package shell implements the interactive storefront client.
package shell

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/atinyakov/GophShop/internal/models"
	"github.com/atinyakov/GophShop/internal/service"
)

// Catalog is the subset of the catalog client the shell uses.
type Catalog interface {
	Categories(ctx context.Context) ([]models.Category, error)
	ByCategory(ctx context.Context, slug string) ([]models.Product, error)
	Product(ctx context.Context, id int) (models.Product, error)
	Search(ctx context.Context, query string) ([]models.Product, error)
}

// Shell reads commands from in and writes results to out.
type Shell struct {
	in       *bufio.Scanner
	out      io.Writer
	sessions *service.SessionStore
	carts    *service.CartStore
	catalog  Catalog
	// openFile loads avatar images; replaced in tests.
	openFile func(path string) (io.ReadCloser, error)
}

// New builds a shell over the given state containers.
func New(in io.Reader, out io.Writer, sessions *service.SessionStore, carts *service.CartStore, catalog Catalog) *Shell {
	return &Shell{
		in:       bufio.NewScanner(in),
		out:      out,
		sessions: sessions,
		carts:    carts,
		catalog:  catalog,
		openFile: openFile,
	}
}

const helpText = `Available commands:
  categories            list catalog categories
  category <slug>       list products of a category
  search <query>        search products
  show <id>             product details
  cart                  show cart
  add <id>              add product to cart
  inc <id> | dec <id>   change quantity
  rm <id>               remove from cart
  favs                  show favorites
  fav <id>              toggle favorite
  unfav <id>            remove favorite
  register | login | logout | whoami | profile
  exit`

// Run processes commands until exit or end of input.
func (s *Shell) Run(ctx context.Context) {
	for {
		fmt.Fprint(s.out, "gophshop> ")
		if !s.in.Scan() {
			fmt.Fprintln(s.out)
			return
		}
		args := strings.Fields(strings.TrimSpace(s.in.Text()))
		if len(args) == 0 {
			continue
		}
		if args[0] == "exit" {
			fmt.Fprintln(s.out, "Bye")
			return
		}
		s.Exec(ctx, args)
	}
}

// Exec runs a single command.
func (s *Shell) Exec(ctx context.Context, args []string) {
	switch args[0] {
	case "help":
		fmt.Fprintln(s.out, helpText)
	case "categories":
		s.categories(ctx)
	case "category":
		if len(args) < 2 {
			fmt.Fprintln(s.out, "Usage: category <slug>")
			return
		}
		s.category(ctx, args[1])
	case "search":
		if len(args) < 2 {
			fmt.Fprintln(s.out, "Usage: search <query>")
			return
		}
		s.search(ctx, strings.Join(args[1:], " "))
	case "show":
		if id, ok := s.idArg(args); ok {
			s.show(ctx, id)
		}
	case "cart":
		s.printCart()
	case "add":
		if id, ok := s.idArg(args); ok {
			s.add(ctx, id)
		}
	case "inc":
		if id, ok := s.idArg(args); ok && s.requireLogin() {
			s.carts.Increment(ctx, id)
			s.printCart()
		}
	case "dec":
		if id, ok := s.idArg(args); ok && s.requireLogin() {
			s.carts.Decrement(ctx, id)
			s.printCart()
		}
	case "rm":
		if id, ok := s.idArg(args); ok && s.requireLogin() {
			s.carts.RemoveFromCart(ctx, id)
			s.printCart()
		}
	case "favs":
		s.printItems("Favorites", s.carts.Favorites())
	case "fav":
		if id, ok := s.idArg(args); ok {
			s.toggleFavorite(ctx, id)
		}
	case "unfav":
		if id, ok := s.idArg(args); ok && s.requireLogin() {
			s.carts.RemoveFromFavorites(ctx, id)
			fmt.Fprintln(s.out, "Product removed from your favorites.")
		}
	case "register":
		s.register(ctx)
	case "login":
		s.login(ctx)
	case "logout":
		s.sessions.Logout(ctx)
		fmt.Fprintln(s.out, "Logged out")
	case "whoami":
		if u, ok := s.sessions.User(); ok {
			fmt.Fprintf(s.out, "%s <%s> (id %s)\n", u.Name, u.Email, u.ID)
		} else {
			fmt.Fprintln(s.out, "Not logged in")
		}
	case "profile":
		s.profile(ctx)
	default:
		fmt.Fprintln(s.out, "Unknown command. Type 'help' for a list of commands.")
	}
}

func (s *Shell) idArg(args []string) (int, bool) {
	if len(args) < 2 {
		fmt.Fprintf(s.out, "Usage: %s <id>\n", args[0])
		return 0, false
	}
	id, err := strconv.Atoi(args[1])
	if err != nil || id <= 0 {
		fmt.Fprintf(s.out, "Invalid id %q\n", args[1])
		return 0, false
	}
	return id, true
}

func (s *Shell) requireLogin() bool {
	if s.sessions.IsAuthenticated() {
		return true
	}
	fmt.Fprintln(s.out, "Please login first.")
	return false
}

func (s *Shell) categories(ctx context.Context) {
	cats, err := s.catalog.Categories(ctx)
	if err != nil {
		fmt.Fprintln(s.out, "Error fetching categories:", err)
		return
	}
	for _, c := range cats {
		fmt.Fprintf(s.out, "%-20s %s\n", c.Slug, c.Name)
	}
}

func (s *Shell) category(ctx context.Context, slug string) {
	products, err := s.catalog.ByCategory(ctx, slug)
	if err != nil {
		fmt.Fprintln(s.out, "Error fetching products:", err)
		return
	}
	s.printProducts(products)
}

func (s *Shell) search(ctx context.Context, q string) {
	products, err := s.catalog.Search(ctx, q)
	if err != nil {
		fmt.Fprintln(s.out, "Error fetching search results:", err)
		return
	}
	if len(products) == 0 {
		fmt.Fprintln(s.out, "No products found")
		return
	}
	s.printProducts(products)
}

func (s *Shell) show(ctx context.Context, id int) {
	p, err := s.catalog.Product(ctx, id)
	if err != nil {
		fmt.Fprintln(s.out, "Error fetching product:", err)
		return
	}
	fmt.Fprintf(s.out, "ID: %d\nTitle: %s\nBrand: %s\nCategory: %s\nPrice: %.2f (-%.1f%%)\nRating: %.1f\nStock: %d\n%s\n",
		p.ID, p.Title, p.Brand, p.Category, p.Price, p.DiscountPercentage, p.Rating, p.Stock, p.Description)
	if s.carts.InCart(p.ID) {
		fmt.Fprintln(s.out, "[in cart]")
	}
	if s.carts.InFavorites(p.ID) {
		fmt.Fprintln(s.out, "[favorite]")
	}
}

func (s *Shell) add(ctx context.Context, id int) {
	if !s.requireLogin() {
		return
	}
	if s.carts.InCart(id) {
		fmt.Fprintln(s.out, "Product already in your cart.")
		return
	}
	p, err := s.catalog.Product(ctx, id)
	if err != nil {
		fmt.Fprintln(s.out, "Error fetching product:", err)
		return
	}
	s.carts.AddToCart(ctx, p.LineItem())
	fmt.Fprintln(s.out, "Product added to your cart successfully!")
}

func (s *Shell) toggleFavorite(ctx context.Context, id int) {
	if !s.requireLogin() {
		return
	}
	item := models.LineItem{ID: id}
	if !s.carts.InFavorites(id) {
		p, err := s.catalog.Product(ctx, id)
		if err != nil {
			fmt.Fprintln(s.out, "Error fetching product:", err)
			return
		}
		item = p.LineItem()
	}
	if s.carts.ToggleFavorite(ctx, item) {
		fmt.Fprintln(s.out, "Product added to your favorites!")
	} else {
		fmt.Fprintln(s.out, "Product removed from your favorites.")
	}
}

func (s *Shell) printProducts(products []models.Product) {
	for _, p := range products {
		fmt.Fprintf(s.out, "%4d  %-40s %8.2f\n", p.ID, p.Title, p.Price)
	}
}

func (s *Shell) printItems(title string, items []models.LineItem) {
	fmt.Fprintf(s.out, "%s:\n", title)
	if len(items) == 0 {
		fmt.Fprintln(s.out, "  (empty)")
		return
	}
	for _, it := range items {
		fmt.Fprintf(s.out, "%4d  %-40s %8.2f x %d\n", it.ID, it.Title, it.Price, it.Qty())
	}
}

func (s *Shell) printCart() {
	s.printItems("Shopping Cart", s.carts.Cart())
	if n := s.carts.Count(); n > 0 {
		fmt.Fprintf(s.out, "Items: %d  Total: %.2f\n", n, s.carts.Total())
	}
}

func (s *Shell) register(ctx context.Context) {
	req, err := s.promptRegister()
	if err == nil {
		err = req.Validate()
	}
	if err != nil {
		fmt.Fprintln(s.out, err)
		return
	}
	switch err := s.sessions.Register(ctx, req); {
	case errors.Is(err, service.ErrUserExists):
		fmt.Fprintln(s.out, "User already exists with this email")
	case err != nil:
		fmt.Fprintln(s.out, "Registration failed:", err)
	default:
		fmt.Fprintln(s.out, "Registration successful. Please login.")
	}
}

func (s *Shell) login(ctx context.Context) {
	email := s.prompt("Email: ")
	password := s.prompt("Password: ")
	switch err := s.sessions.Login(ctx, email, password); {
	case errors.Is(err, service.ErrStorageUnavailable):
		fmt.Fprintln(s.out, "Login failed:", err)
		return
	case err != nil:
		fmt.Fprintln(s.out, "Invalid email or password")
		return
	}
	u, _ := s.sessions.User()
	fmt.Fprintf(s.out, "Welcome, %s!\n", u.Name)
}

func (s *Shell) profile(ctx context.Context) {
	if !s.requireLogin() {
		return
	}
	upd, err := s.promptProfile()
	if err != nil {
		fmt.Fprintln(s.out, err)
		return
	}
	if err := s.sessions.UpdateUser(ctx, upd); err != nil {
		fmt.Fprintln(s.out, "Profile update failed:", err)
		return
	}
	fmt.Fprintln(s.out, "Profile updated successfully!")
}
