package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"jewelcatalog/internal/models"
	"jewelcatalog/internal/storefront"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	keyAPIURL   = "api-url"
	keyNumber   = "whatsapp-number"
	keyShopName = "shop-name"
	keyTimeout  = "timeout"
)

func newRootCmd() *cobra.Command {
	v := viper.New()

	root := &cobra.Command{
		Use:           "storefront",
		Short:         "Browse the jewellery catalog and compose enquiries",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			_ = godotenv.Load() // load .env if it exists
		},
	}

	flags := root.PersistentFlags()
	flags.String(keyAPIURL, "http://localhost:4000/api/products", "catalog products endpoint")
	flags.String(keyNumber, storefront.DefaultWhatsAppNumber, "WhatsApp number enquiries are sent to")
	flags.String(keyShopName, storefront.DefaultShopName, "shop name used in product enquiries")
	flags.Duration(keyTimeout, 15*time.Second, "catalog request timeout")

	v.SetEnvPrefix("STOREFRONT")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	_ = v.BindPFlags(flags)

	root.AddCommand(newListCmd(v), newCategoriesCmd(v), newEnquireCmd(v))
	return root
}

func loadSession(ctx context.Context, v *viper.Viper) (*storefront.Session, error) {
	client := &http.Client{Timeout: v.GetDuration(keyTimeout)}
	session := storefront.NewSession(
		storefront.NewHTTPFetcher(v.GetString(keyAPIURL), client),
		storefront.Config{
			WhatsAppNumber: v.GetString(keyNumber),
			ShopName:       v.GetString(keyShopName),
		},
	)
	if err := session.Load(ctx); err != nil {
		session.Close()
		return nil, err
	}
	return session, nil
}

func newListCmd(v *viper.Viper) *cobra.Command {
	var (
		category, metal, search, sortKey string
		minPrice, maxPrice               float64
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List products matching the filters",
		RunE: func(cmd *cobra.Command, args []string) error {
			session, err := loadSession(cmd.Context(), v)
			if err != nil {
				fmt.Fprintln(cmd.OutOrStdout(), storefront.MessageLoadFailed)
				return err
			}
			defer session.Close()

			session.SetCategory(category)
			session.SetMetalType(metal)
			session.SetSearch(search)
			session.SetSort(storefront.ParseSortKey(sortKey))
			if cmd.Flags().Changed("min") {
				session.SetPriceMin(minPrice)
			}
			if cmd.Flags().Changed("max") {
				session.SetPriceMax(maxPrice)
			}

			printView(cmd.OutOrStdout(), session.View())
			return nil
		},
	}
	cmd.Flags().StringVar(&category, "category", storefront.AllCategories, "category to show")
	cmd.Flags().StringVar(&metal, "metal", "", "metal type to show")
	cmd.Flags().StringVar(&search, "search", "", "text to look for in name or category")
	cmd.Flags().StringVar(&sortKey, "sort", string(storefront.SortNone), "none, price-asc, price-desc or rating-desc")
	cmd.Flags().Float64Var(&minPrice, "min", 0, "lowest price")
	cmd.Flags().Float64Var(&maxPrice, "max", 0, "highest price")
	return cmd
}

func newCategoriesCmd(v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "categories",
		Short: "Show category options and price bounds",
		RunE: func(cmd *cobra.Command, args []string) error {
			session, err := loadSession(cmd.Context(), v)
			if err != nil {
				return err
			}
			defer session.Close()

			out := cmd.OutOrStdout()
			for _, c := range session.CategoryOptions() {
				fmt.Fprintf(out, "%s\t%s\n", c, storefront.CategoryLabel(c))
			}
			bounds := session.PriceRange().Bounds()
			fmt.Fprintf(out, "price range: %s - %s\n", storefront.FormatPrice(bounds.Min), storefront.FormatPrice(bounds.Max))
			return nil
		},
	}
}

func newEnquireCmd(v *viper.Viper) *cobra.Command {
	var (
		productIDs  []string
		name, phone string
	)
	cmd := &cobra.Command{
		Use:   "enquire",
		Short: "Compose a WhatsApp enquiry for the given products",
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(productIDs) == 0 {
				return fmt.Errorf("at least one --id is required")
			}
			session, err := loadSession(cmd.Context(), v)
			if err != nil {
				return err
			}
			defer session.Close()

			byID := make(map[string]models.Product)
			for _, p := range session.Products() {
				byID[p.ID] = p
			}
			for _, id := range productIDs {
				p, ok := byID[id]
				if !ok {
					return fmt.Errorf("product %q not found", id)
				}
				session.AddToEnquiry(p)
			}

			message, link := session.EnquiryMessage(name, phone)
			fmt.Fprintln(cmd.OutOrStdout(), message)
			fmt.Fprintln(cmd.OutOrStdout())
			fmt.Fprintln(cmd.OutOrStdout(), link)
			return nil
		},
	}
	cmd.Flags().StringSliceVar(&productIDs, "id", nil, "product id to enquire about (repeatable)")
	cmd.Flags().StringVar(&name, "name", "", "customer name")
	cmd.Flags().StringVar(&phone, "phone", "", "customer phone")
	return cmd
}

func printView(out io.Writer, view storefront.View) {
	if view.Failed || view.Empty {
		fmt.Fprintln(out, view.Message)
		return
	}
	for _, card := range view.Cards {
		fmt.Fprintf(out, "[%s] %s (%s) %s %s %s\n", card.ID, card.Name, card.Category, card.Price, card.Stars, card.RatingLabel)
		if card.ShortDescription != "" {
			fmt.Fprintf(out, "    %s\n", card.ShortDescription)
		}
		if len(card.Badges) > 0 {
			fmt.Fprintf(out, "    %s\n", strings.Join(card.Badges, ", "))
		}
		for _, d := range card.Descriptors {
			fmt.Fprintf(out, "    %s\n", d)
		}
	}
	fmt.Fprintf(out, "%d products\n", len(view.Cards))
}
