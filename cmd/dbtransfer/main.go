package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/fzseyedi/DatabaseHelper/conn"
	"github.com/fzseyedi/DatabaseHelper/dest"
	"github.com/fzseyedi/DatabaseHelper/mapper"
	"github.com/fzseyedi/DatabaseHelper/schema"
	"github.com/fzseyedi/DatabaseHelper/source"
	"github.com/fzseyedi/DatabaseHelper/transfer"
)

func main() {
	listDatabases := flag.Bool("list-databases", false, "List databases on the source server and exit")
	listTables := flag.Bool("list-tables", false, "List tables in the source database and exit")
	preview := flag.Bool("preview", false, "Print a bounded preview of the source expression and exit")
	count := flag.Bool("count", false, "Print the source row count and exit")
	flag.Parse()

	config, err := LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if err := config.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	// Ctrl-C cancels cooperatively; the engine rolls back at the next
	// batch boundary.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srcSettings := config.Source.Settings()
	srcDialect, err := srcSettings.Dialect()
	if err != nil {
		log.Fatalf("Invalid source settings: %v", err)
	}

	srcDB, err := conn.Open(ctx, srcSettings)
	if err != nil {
		log.Fatalf("Source connection failed: %v", err)
	}
	defer srcDB.Close()

	reader := source.NewReader(srcDB, srcDialect)
	req := config.Request(destTableName(config))

	switch {
	case *listDatabases:
		dbs, err := conn.ListDatabases(ctx, srcDB, srcDialect)
		if err != nil {
			log.Fatalf("Failed to list databases: %v", err)
		}
		for _, db := range dbs {
			fmt.Println(db.Name)
		}
		return

	case *listTables:
		tables, err := conn.ListTables(ctx, srcDB, srcDialect)
		if err != nil {
			log.Fatalf("Failed to list tables: %v", err)
		}
		for _, t := range tables {
			fmt.Printf("%s\t%d\n", t.Name, t.Rows)
		}
		return

	case *count:
		expr, isQuery := req.SourceExpression()
		n, err := reader.RowCount(ctx, req.SourceDatabase, expr, isQuery)
		if err != nil {
			log.Fatalf("Failed to count source rows: %v", err)
		}
		fmt.Println(n)
		return

	case *preview:
		expr, isQuery := req.SourceExpression()
		cols, rows, err := reader.Preview(ctx, req.SourceDatabase, expr, isQuery, config.PreviewRows)
		if err != nil {
			log.Fatalf("Failed to preview source rows: %v", err)
		}
		printPreview(cols, rows)
		return
	}

	runTransfer(ctx, config, reader, req)
}

// runTransfer validates both ends, wires the engine and executes one
// transfer, logging every progress snapshot.
func runTransfer(ctx context.Context, config *Config, reader *source.Reader, req transfer.Request) {
	if config.Dest.Host == "" {
		log.Fatalf("Destination host is required for a transfer")
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return conn.TestConnection(gctx, config.Source.Settings()) })
	g.Go(func() error { return conn.TestConnection(gctx, config.Dest.Settings()) })
	if err := g.Wait(); err != nil {
		log.Fatalf("Connection check failed: %v", err)
	}

	destSettings := config.Dest.Settings()
	destDialect, err := destSettings.Dialect()
	if err != nil {
		log.Fatalf("Invalid destination settings: %v", err)
	}

	writer, err := openWriter(ctx, config)
	if err != nil {
		log.Fatalf("Destination connection failed: %v", err)
	}
	defer writer.Close(context.WithoutCancel(ctx))

	resolver := schema.NewResolver(destDialect, nameMapper(config.NameStyle))
	orch := transfer.New(transfer.NewSourceReader(reader), resolver, writer)

	sink := transfer.SinkFunc(func(p transfer.Progress) {
		if p.Err != "" {
			log.Printf("[%3d%%] %s: %s", p.Percent, p.Status, p.Err)
			return
		}
		log.Printf("[%3d%%] %s", p.Percent, p.Status)
	})

	result := orch.Run(ctx, req, sink)
	switch {
	case result.Succeeded:
		log.Printf("Transfer %s succeeded: %d rows in %.2f seconds", result.RunID, result.Rows, result.Duration.Seconds())
	case result.Cancelled:
		log.Printf("Transfer %s cancelled, destination unchanged", result.RunID)
		os.Exit(1)
	default:
		log.Printf("Transfer %s failed: %v", result.RunID, result.Err)
		os.Exit(1)
	}
}

// destTableName applies the configured default: an explicit dest_table
// wins, otherwise a table-mode transfer targets the (name-mapped) source
// table name.
func destTableName(config *Config) string {
	if config.Transfer.DestTable != "" {
		return config.Transfer.DestTable
	}
	if config.Transfer.Table != "" {
		return nameMapper(config.NameStyle).MapTableName(config.Transfer.Table)
	}
	return ""
}

func nameMapper(style string) mapper.NameMapper {
	switch style {
	case "snake":
		return &mapper.Custom{
			TableTransform:  mapper.Snake,
			ColumnTransform: func(_, column string) string { return mapper.Snake(column) },
		}
	case "lower":
		return &mapper.Custom{
			TableTransform:  mapper.Lower,
			ColumnTransform: func(_, column string) string { return mapper.Lower(column) },
		}
	default:
		return mapper.Identity{}
	}
}

func openWriter(ctx context.Context, config *Config) (dest.Writer, error) {
	settings := config.Dest.Settings()
	d, err := settings.Dialect()
	if err != nil {
		return nil, err
	}

	if config.PGCopy && d.Name() == "postgres" {
		dsn, err := settings.DSN()
		if err != nil {
			return nil, err
		}
		return dest.NewPGXWriter(ctx, dsn)
	}

	db, err := conn.Open(ctx, settings)
	if err != nil {
		return nil, err
	}
	return dest.NewSQLWriter(db, d), nil
}

func printPreview(cols []schema.Column, rows [][]any) {
	names := make([]string, len(cols))
	for i, c := range cols {
		names[i] = c.Name
	}
	fmt.Println(strings.Join(names, "\t"))
	for _, row := range rows {
		parts := make([]string, len(row))
		for i, v := range row {
			if v == nil {
				parts[i] = "NULL"
				continue
			}
			parts[i] = fmt.Sprintf("%v", v)
		}
		fmt.Println(strings.Join(parts, "\t"))
	}
}
