// Package console is the interactive text menu over an inventory store.
package console

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"inventory/internal/inventory"
)

// errInputClosed ends the session the same way the exit option does.
var errInputClosed = errors.New("input closed")

const menuText = `
=== Inventory Menu ===
1. Add product
2. View products
3. Update product
4. Remove product
5. Save and exit`

type Menu struct {
	store inventory.Store
	save  func() error
	log   *zap.Logger

	in  *bufio.Scanner
	out io.Writer

	// dirty is set by every successful add, update or remove.
	dirty bool
}

// New builds a menu reading answers from in and writing prompts to out.
// save runs once when the session ends.
func New(in io.Reader, out io.Writer, store inventory.Store, save func() error, log *zap.Logger) *Menu {
	if log == nil {
		log = zap.NewNop()
	}
	return &Menu{
		store: store,
		save:  save,
		log:   log,
		in:    bufio.NewScanner(in),
		out:   out,
	}
}

// Run loops until the user picks "save and exit" or input ends. Option 5
// always saves; closed input saves only when the session changed something,
// so a store that failed to load never replaces the data behind it.
func (m *Menu) Run() error {
	for {
		m.println(menuText)
		choice, err := m.prompt("Choose an option: ")
		if err != nil {
			break
		}

		switch choice {
		case "1":
			err = m.add()
		case "2":
			m.view()
		case "3":
			err = m.update()
		case "4":
			err = m.remove()
		case "5":
			return m.finish()
		default:
			m.println("Invalid option, please choose 1-5.")
		}

		if errors.Is(err, errInputClosed) {
			break
		}
	}

	if !m.dirty {
		m.println("Input closed, nothing to save.")
		return nil
	}
	return m.finish()
}

func (m *Menu) finish() error {
	if m.save != nil {
		if err := m.save(); err != nil {
			m.println("Could not save inventory: " + err.Error())
			return err
		}
	}
	m.println("Inventory saved. Goodbye!")
	return nil
}

func (m *Menu) add() error {
	name, err := m.prompt("Product name: ")
	if err != nil {
		return err
	}
	if _, exists := m.store.Find(name); exists {
		m.println("A product with that name already exists.")
		return nil
	}

	category, err := m.chooseCategory(false)
	if err != nil {
		return err
	}
	brand, err := m.prompt("Brand: ")
	if err != nil {
		return err
	}
	qty, err := m.promptInt("Quantity: ", false)
	if err != nil {
		return err
	}
	price, err := m.promptPrice("Price: ", false)
	if err != nil {
		return err
	}

	in := inventory.AddInput{
		Name:     name,
		Category: category,
		Brand:    []string{brand},
		Quantity: *qty,
		Price:    *price,
	}

	perishable, err := m.prompt("Is the product perishable? (y/n): ")
	if err != nil {
		return err
	}
	if strings.EqualFold(perishable, "y") {
		exp, err := m.prompt("Expiration date (YYYY-MM-DD): ")
		if err != nil {
			return err
		}
		in.ExpirationDate = &exp
	}

	id, err := m.store.Add(in)
	if err != nil {
		m.println("Could not add product: " + err.Error())
		return nil
	}

	m.dirty = true
	m.log.Debug("product added", zap.Int("id", id), zap.String("name", inventory.NormalizeName(name)))
	m.println(fmt.Sprintf("Product added with ID %d.", id))
	return nil
}

func (m *Menu) view() {
	products := m.store.List()
	if len(products) == 0 {
		m.println("Inventory is empty.")
		return
	}
	for _, p := range products {
		m.println(p.String())
	}
}

func (m *Menu) update() error {
	name, err := m.prompt("Product name to update: ")
	if err != nil {
		return err
	}
	if _, ok := m.store.Find(name); !ok {
		m.println("Product not found.")
		return nil
	}

	m.println("Leave a field blank to keep its current value.")

	var patch inventory.Patch
	category, err := m.chooseCategory(true)
	if err != nil {
		return err
	}
	if category != "" {
		patch.Category = &category
	}
	if patch.Quantity, err = m.promptInt("New quantity: ", true); err != nil {
		return err
	}
	if patch.Price, err = m.promptPrice("New price: ", true); err != nil {
		return err
	}

	if patch.Empty() {
		m.println("Nothing to update.")
		return nil
	}

	if err := m.store.Update(name, patch); err != nil {
		m.println("Could not update product: " + err.Error())
		return nil
	}
	m.dirty = true
	m.println("Product updated.")
	return nil
}

func (m *Menu) remove() error {
	name, err := m.prompt("Product name to remove: ")
	if err != nil {
		return err
	}
	if err := m.store.Remove(name); err != nil {
		m.println("Product not found.")
		return nil
	}
	m.dirty = true
	m.println("Product removed.")
	return nil
}

// chooseCategory shows the numbered category list. With optional set, a
// blank answer returns "".
func (m *Menu) chooseCategory(optional bool) (string, error) {
	m.println("Categories:")
	for i, c := range inventory.Categories {
		m.println(fmt.Sprintf("%d. %s", i+1, c))
	}

	for {
		answer, err := m.prompt("Choose a category: ")
		if err != nil {
			return "", err
		}
		if answer == "" && optional {
			return "", nil
		}
		n, err := strconv.Atoi(answer)
		if err == nil && n >= 1 && n <= len(inventory.Categories) {
			return inventory.Categories[n-1], nil
		}
		m.println(fmt.Sprintf("Please enter a number between 1 and %d.", len(inventory.Categories)))
	}
}

func (m *Menu) promptInt(label string, optional bool) (*int, error) {
	for {
		answer, err := m.prompt(label)
		if err != nil {
			return nil, err
		}
		if answer == "" && optional {
			return nil, nil
		}
		n, err := strconv.Atoi(answer)
		if err == nil && n >= 0 {
			return &n, nil
		}
		m.println("Please enter a whole number of zero or more.")
	}
}

func (m *Menu) promptPrice(label string, optional bool) (*decimal.Decimal, error) {
	for {
		answer, err := m.prompt(label)
		if err != nil {
			return nil, err
		}
		if answer == "" && optional {
			return nil, nil
		}
		d, err := decimal.NewFromString(strings.TrimPrefix(answer, "$"))
		if err == nil && !d.IsNegative() {
			return &d, nil
		}
		m.println("Please enter a price of zero or more.")
	}
}

func (m *Menu) prompt(label string) (string, error) {
	fmt.Fprint(m.out, label)
	if !m.in.Scan() {
		m.println("")
		return "", errInputClosed
	}
	return strings.TrimSpace(m.in.Text()), nil
}

func (m *Menu) println(s string) {
	fmt.Fprintln(m.out, s)
}
