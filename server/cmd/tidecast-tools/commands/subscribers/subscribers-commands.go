package subscribers

import (
	"context"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/tidecast/tidecast/common/gerror"
	"github.com/tidecast/tidecast/common/models"
	"github.com/tidecast/tidecast/common/models/search"
	"github.com/tidecast/tidecast/server/app"
	"github.com/tidecast/tidecast/server/cmd/tidecast-tools/cli"
	"github.com/tidecast/tidecast/server/cmd/tidecast-tools/commands"
	"github.com/tidecast/tidecast/server/dto"
)

func init() {
	subscribersRootCmd.PersistentFlags().StringVarP(
		&subscribersCmdConfig.environmentID,
		"environment",
		"e",
		"",
		"The environment whose subscribers to work with")

	subscribersListCmd.Flags().IntVar(&listCmdConfig.limit, "limit", models.DefaultPaginationLimit,
		"The maximum number of subscribers to list")
	subscribersListCmd.Flags().StringVar(&listCmdConfig.sort, "sort", "",
		"The field to sort by, e.g. created_at, email, last_name (default created_at)")
	subscribersListCmd.Flags().StringVar(&listCmdConfig.direction, "direction", "",
		"The sort direction, asc or desc (default desc)")
	subscribersListCmd.Flags().StringVar(&listCmdConfig.after, "after", "",
		"List the page after the subscriber with this id, taken from a previous listing's next cursor")
	subscribersListCmd.Flags().StringVar(&listCmdConfig.before, "before", "",
		"List the page before the subscriber with this id, taken from a previous listing's previous cursor")
	subscribersListCmd.Flags().StringVarP(&listCmdConfig.query, "query", "q", "",
		`A search query, e.g. "ada in:email locale:en_GB created_at:>2024-01-01T00:00:00Z sort:email-asc"`)
	subscribersListCmd.Flags().StringVarP(&listCmdConfig.output, "output", "o", cli.OutputTable,
		fmt.Sprintf("The output format. Options: %s", strings.Join(cli.OutputFormats(), ", ")))

	subscribersSeedCmd.Flags().IntVarP(&seedCmdConfig.count, "count", "n", 100,
		"The number of subscribers to create")
	subscribersSeedCmd.Flags().StringVar(&seedCmdConfig.prefix, "prefix", "seed",
		"The prefix for the external ids and emails of the created subscribers")

	subscribersExportCmd.Flags().IntVar(&exportCmdConfig.pageSize, "page-size", 500,
		"The number of subscribers to read per page while exporting")
	subscribersExportCmd.Flags().StringVarP(&exportCmdConfig.query, "query", "q", "",
		"A search query selecting the subscribers to export (default all)")
	subscribersExportCmd.Flags().StringVar(&exportCmdConfig.key, "key", "",
		"The blob key to write the export to (default exports/<environment>/<time>.ndjson)")

	subscribersDeleteCmd.Flags().BoolVar(&deleteCmdConfig.byExternalID, "external-id", false,
		"Treat the arguments as external ids within the environment rather than subscriber ids")

	commands.RootCmd.AddCommand(subscribersRootCmd)
	subscribersRootCmd.AddCommand(subscribersListCmd)
	subscribersRootCmd.AddCommand(subscribersSeedCmd)
	subscribersRootCmd.AddCommand(subscribersExportCmd)
	subscribersRootCmd.AddCommand(subscribersDeleteCmd)
}

var subscribersCmdConfig = struct {
	environmentID string
	server        *app.Server
	cleanup       func()
}{}

var listCmdConfig = struct {
	limit     int
	sort      string
	direction string
	after     string
	before    string
	query     string
	output    string
}{}

var seedCmdConfig = struct {
	count  int
	prefix string
}{}

var exportCmdConfig = struct {
	pageSize int
	query    string
	key      string
}{}

var deleteCmdConfig = struct {
	byExternalID bool
}{}

var subscribersRootCmd = &cobra.Command{
	Use:   "subscribers list|seed|export|delete",
	Short: "Lists, seeds, exports and deletes the subscribers of an environment",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		commands.LogArgs()
		if subscribersCmdConfig.environmentID == "" {
			return fmt.Errorf("error: --environment must be set")
		}
		server, cleanup, err := app.New(context.Background(), commands.ServerConfig())
		if err != nil {
			return fmt.Errorf("error opening subscriber store: %w", err)
		}
		subscribersCmdConfig.server = server
		subscribersCmdConfig.cleanup = cleanup
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if subscribersCmdConfig.cleanup != nil {
			subscribersCmdConfig.cleanup()
			subscribersCmdConfig.cleanup = nil
		}
	},
}

// subscriberOutput is the structured form of a listed subscriber.
type subscriberOutput struct {
	ID         models.ResourceID `json:"id" yaml:"id"`
	ExternalID string            `json:"external_id" yaml:"external_id"`
	Email      string            `json:"email,omitempty" yaml:"email,omitempty"`
	FirstName  string            `json:"first_name,omitempty" yaml:"first_name,omitempty"`
	LastName   string            `json:"last_name,omitempty" yaml:"last_name,omitempty"`
	Phone      string            `json:"phone,omitempty" yaml:"phone,omitempty"`
	Locale     string            `json:"locale,omitempty" yaml:"locale,omitempty"`
	CreatedAt  string            `json:"created_at" yaml:"created_at"`
	UpdatedAt  string            `json:"updated_at" yaml:"updated_at"`
}

type listOutput struct {
	Subscribers []subscriberOutput `json:"subscribers" yaml:"subscribers"`
	Next        *models.ResourceID `json:"next" yaml:"next"`
	Previous    *models.ResourceID `json:"previous" yaml:"previous"`
}

func makeListOutput(subscribers []*models.Subscriber, cursor *models.Cursor) *listOutput {
	out := &listOutput{Subscribers: make([]subscriberOutput, 0, len(subscribers))}
	if cursor != nil {
		out.Next = cursor.Next
		out.Previous = cursor.Previous
	}
	for _, s := range subscribers {
		out.Subscribers = append(out.Subscribers, subscriberOutput{
			ID:         s.ID.ResourceID,
			ExternalID: s.ExternalID,
			Email:      s.Email,
			FirstName:  s.FirstName,
			LastName:   s.LastName,
			Phone:      s.Phone,
			Locale:     s.Locale,
			CreatedAt:  s.CreatedAt.Format(time.RFC3339Nano),
			UpdatedAt:  s.UpdatedAt.Format(time.RFC3339Nano),
		})
	}
	return out
}

// makeListQuery combines the --query text with the paging and sort flags. Flags take precedence
// over a sort given in the query text.
func makeListQuery() (search.Query, error) {
	if listCmdConfig.after != "" && listCmdConfig.before != "" {
		return search.Query{}, gerror.NewErrInvalidArgument("Only one of --after and --before may be set")
	}
	parsed := search.ParseQuery(listCmdConfig.query)
	builder := search.NewQueryBuilder(parsed).Limit(listCmdConfig.limit)
	if listCmdConfig.sort != "" || listCmdConfig.direction != "" {
		sort := parsed.SortOrDefault(search.DefaultSubscriberSort)
		if listCmdConfig.sort != "" {
			sort.Field = search.FieldName(listCmdConfig.sort)
		}
		if listCmdConfig.direction != "" {
			direction, err := parseDirection(listCmdConfig.direction)
			if err != nil {
				return search.Query{}, err
			}
			sort.Direction = direction
		}
		builder = builder.Sort(sort.Field, sort.Direction)
	}
	if listCmdConfig.after != "" {
		builder = builder.After(models.ResourceID(listCmdConfig.after))
	}
	if listCmdConfig.before != "" {
		builder = builder.Before(models.ResourceID(listCmdConfig.before))
	}
	return builder.Compile(), nil
}

func parseDirection(direction string) (search.SortDirection, error) {
	switch strings.ToLower(direction) {
	case "asc", "ascending":
		return search.Ascending, nil
	case "desc", "descending":
		return search.Descending, nil
	default:
		return "", gerror.NewErrInvalidArgument(fmt.Sprintf("Invalid sort direction %q; expected asc or desc", direction))
	}
}

var subscribersListCmd = &cobra.Command{
	Use:           "list",
	Short:         "Lists one page of the subscribers in an environment",
	Args:          cobra.NoArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		query, err := makeListQuery()
		if err != nil {
			return err
		}
		subscribers, cursor, err := subscribersCmdConfig.server.SubscriberService.ListSubscribers(
			context.Background(), nil, subscribersCmdConfig.environmentID, query)
		if err != nil {
			return fmt.Errorf("error listing subscribers: %w", err)
		}
		out := makeListOutput(subscribers, cursor)
		if strings.ToLower(listCmdConfig.output) == cli.OutputTable {
			return writeTable(out)
		}
		return cli.WriteStructured(os.Stdout, listCmdConfig.output, out)
	},
}

func writeTable(out *listOutput) error {
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tEXTERNAL ID\tEMAIL\tNAME\tCREATED AT")
	for _, s := range out.Subscribers {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", s.ID, s.ExternalID, s.Email, strings.TrimSpace(s.FirstName+" "+s.LastName), s.CreatedAt)
	}
	err := w.Flush()
	if err != nil {
		return err
	}
	if out.Previous != nil {
		cli.Stdout.Printf("\nPrevious page: --before %s", *out.Previous)
	}
	if out.Next != nil {
		cli.Stdout.Printf("Next page: --after %s", *out.Next)
	}
	return nil
}

var subscribersSeedCmd = &cobra.Command{
	Use:           "seed",
	Short:         "Creates a number of test subscribers in an environment",
	Args:          cobra.NoArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		if seedCmdConfig.count <= 0 {
			return fmt.Errorf("error: --count must be positive")
		}
		ctx := context.Background()
		for i := 0; i < seedCmdConfig.count; i++ {
			_, err := subscribersCmdConfig.server.SubscriberService.Create(ctx, nil, dto.CreateSubscriber{
				EnvironmentID: subscribersCmdConfig.environmentID,
				ExternalID:    fmt.Sprintf("%s-%06d", seedCmdConfig.prefix, i),
				Email:         fmt.Sprintf("%s%06d@example.com", seedCmdConfig.prefix, i),
				FirstName:     seedFirstNames[i%len(seedFirstNames)],
				LastName:      seedLastNames[(i/len(seedFirstNames))%len(seedLastNames)],
				Locale:        "en_GB",
			})
			if err != nil {
				return fmt.Errorf("error creating subscriber %d: %w", i, err)
			}
		}
		cli.Stdout.Printf("Created %d subscribers in environment %q", seedCmdConfig.count, subscribersCmdConfig.environmentID)
		return nil
	},
}

var seedFirstNames = []string{"Ada", "Alan", "Barbara", "Edsger", "Grace", "Katherine", "Ken", "Margaret"}
var seedLastNames = []string{"Hopper", "Knuth", "Lamport", "Liskov", "Lovelace", "Ritchie", "Thompson", "Turing"}

// makeExportKey returns the --key flag, or a key under exports/ named for the environment and the current time.
func makeExportKey(environmentID string, now time.Time) string {
	if exportCmdConfig.key != "" {
		return exportCmdConfig.key
	}
	return fmt.Sprintf("exports/%s/%s.ndjson", environmentID, now.UTC().Format("20060102T150405Z"))
}

var subscribersExportCmd = &cobra.Command{
	Use:           "export",
	Short:         "Exports the subscribers of an environment to the blob store as newline delimited JSON",
	Args:          cobra.NoArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		query := search.NewQueryBuilder(search.ParseQuery(exportCmdConfig.query)).
			Limit(exportCmdConfig.pageSize).
			Compile()
		key := makeExportKey(subscribersCmdConfig.environmentID, time.Now())
		exported, err := subscribersCmdConfig.server.ExportService.ExportSubscribers(
			context.Background(), subscribersCmdConfig.environmentID, query, key)
		if err != nil {
			return err
		}
		cli.Stdout.Printf("Exported %d subscribers to %s", exported, key)
		return nil
	},
}

var subscribersDeleteCmd = &cobra.Command{
	Use:           "delete id...",
	Short:         "Permanently deletes subscribers",
	Args:          cobra.MinimumNArgs(1),
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		service := subscribersCmdConfig.server.SubscriberService
		for _, arg := range args {
			id := models.SubscriberIDFromResourceID(models.ResourceID(arg))
			if deleteCmdConfig.byExternalID {
				subscriber, err := service.ReadByExternalID(ctx, nil, subscribersCmdConfig.environmentID, arg)
				if err != nil {
					return fmt.Errorf("error reading subscriber with external id %q: %w", arg, err)
				}
				id = subscriber.ID
			} else {
				subscriber, err := service.Read(ctx, nil, id)
				if err != nil {
					return fmt.Errorf("error reading subscriber %q: %w", arg, err)
				}
				if subscriber.EnvironmentID != subscribersCmdConfig.environmentID {
					return fmt.Errorf("error subscriber %q is not in environment %q", arg, subscribersCmdConfig.environmentID)
				}
			}
			err := service.Delete(ctx, nil, id)
			if err != nil {
				return err
			}
			cli.Stdout.Printf("Deleted subscriber %s", id)
		}
		return nil
	},
}
