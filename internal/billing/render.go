package billing

import (
	"fmt"
	"html/template"
	"net/url"
	"strings"

	"medstore/m/domain"
)

// StoreInfo is the identity printed on bill headers and share messages.
type StoreInfo struct {
	Name  string
	Owner string
	Phone string
}

// ShareLink builds a wa.me deep link carrying a pre-composed bill message.
// No message is sent; the link is handed back for the client to open.
func ShareLink(bill domain.Bill, store StoreInfo) string {
	message := fmt.Sprintf(
		"Hello! Your bill from %s has been generated.\n\nAmount: Rs. %.2f\nDate: %s\n\nThank you for your business!\n- %s",
		store.Name, bill.GrandTotal, bill.Date, store.Name,
	)
	return "https://wa.me/?text=" + url.QueryEscape(message)
}

const footerNote = "Daway 3 din ke baad wapas nahi hongi. Shukriya!"

var printTemplate = template.Must(template.New("bill").Parse(`<!DOCTYPE html>
<html>
  <head>
    <title>Bill - {{.Store.Name}}</title>
    <style>
      body { font-family: Arial, sans-serif; max-width: 400px; margin: 0 auto; padding: 20px; }
      .header { text-align: center; border-bottom: 2px solid #333; padding-bottom: 10px; margin-bottom: 20px; }
      .store-name { font-size: 20px; font-weight: bold; margin: 0; }
      .owner-name { font-size: 14px; margin: 5px 0; }
      .contact { font-size: 12px; margin: 5px 0; }
      .bill-details { margin: 20px 0; }
      .bill-details div { margin: 5px 0; }
      .items-table { width: 100%; border-collapse: collapse; margin: 20px 0; }
      .items-table th, .items-table td { border: 1px solid #ddd; padding: 8px; text-align: left; }
      .items-table th { background-color: #f5f5f5; }
      .totals { margin: 20px 0; }
      .totals div { margin: 5px 0; display: flex; justify-content: space-between; }
      .grand-total { font-weight: bold; font-size: 16px; border-top: 2px solid #333; padding-top: 10px; }
      .note { margin-top: 20px; font-size: 12px; text-align: center; font-style: italic; }
    </style>
  </head>
  <body>
    <div class="header">
      <h1 class="store-name">{{.Store.Name}}</h1>
      <p class="owner-name">{{.Store.Owner}}</p>
      <p class="contact">{{.Store.Phone}}</p>
    </div>

    <div class="bill-details">
      <div><strong>Customer:</strong> {{.Customer}}</div>
      <div><strong>Date:</strong> {{.Bill.Date}}</div>
      <div><strong>Salesperson:</strong> {{.Salesperson}}</div>
    </div>

    <table class="items-table">
      <thead>
        <tr>
          <th>Medicine</th>
          <th>Qty</th>
          <th>Price</th>
          <th>Total</th>
        </tr>
      </thead>
      <tbody>
        {{range .Bill.LineItems}}<tr>
          <td>{{.Medicine}}</td>
          <td>{{.Quantity}}</td>
          <td>Rs. {{printf "%.2f" .UnitPrice}}</td>
          <td>Rs. {{printf "%.2f" .LineTotal}}</td>
        </tr>
        {{end}}
      </tbody>
    </table>

    <div class="totals">
      <div><span>Subtotal:</span><span>Rs. {{printf "%.2f" .Bill.Subtotal}}</span></div>
      {{if gt .Bill.DiscountPercent 0.0}}<div><span>Discount ({{.Bill.DiscountPercent}}%):</span><span>- Rs. {{printf "%.2f" .Bill.DiscountAmount}}</span></div>{{end}}
      {{if gt .Bill.TaxPercent 0.0}}<div><span>Tax ({{.Bill.TaxPercent}}%):</span><span>Rs. {{printf "%.2f" .Bill.TaxAmount}}</span></div>{{end}}
      <div class="grand-total"><span>Total:</span><span>Rs. {{printf "%.2f" .Bill.GrandTotal}}</span></div>
    </div>

    <div class="note">
      <strong>Note:</strong> {{.Note}}
    </div>
  </body>
</html>
`))

// RenderPrintDocument produces the self-contained printable bill.
func RenderPrintDocument(bill domain.Bill, store StoreInfo) (string, error) {
	customer := bill.Customer
	if strings.TrimSpace(customer) == "" {
		customer = "Walk-in Customer"
	}
	salesperson := bill.Salesperson
	if strings.TrimSpace(salesperson) == "" {
		salesperson = "Admin"
	}

	var out strings.Builder
	err := printTemplate.Execute(&out, struct {
		Store       StoreInfo
		Bill        domain.Bill
		Customer    string
		Salesperson string
		Note        string
	}{store, bill, customer, salesperson, footerNote})
	if err != nil {
		return "", err
	}
	return out.String(), nil
}
