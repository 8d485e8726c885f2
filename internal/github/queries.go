package github

const itemFields = `id number title body state createdAt updatedAt closedAt author { login }`

const commentConnection = `pageInfo { hasNextPage endCursor }
      nodes { id body createdAt author { login } }`

const listIssuesQuery = `query($owner: String!, $name: String!, $first: Int!, $after: String, $since: DateTime) {
  repository(owner: $owner, name: $name) {
    issues(first: $first, after: $after, filterBy: {since: $since}, orderBy: {field: UPDATED_AT, direction: ASC}) {
      pageInfo { hasNextPage endCursor }
      nodes { ` + itemFields + ` }
    }
  }
}`

const listPullRequestsQuery = `query($owner: String!, $name: String!, $first: Int!, $after: String) {
  repository(owner: $owner, name: $name) {
    pullRequests(first: $first, after: $after, orderBy: {field: UPDATED_AT, direction: ASC}) {
      pageInfo { hasNextPage endCursor }
      nodes { ` + itemFields + ` }
    }
  }
}`

// The pullRequests connection has no since filter, so incremental listings go
// through search, which supports an updated qualifier and ascending sort.
const searchPullRequestsQuery = `query($query: String!, $first: Int!, $after: String) {
  search(query: $query, type: ISSUE, first: $first, after: $after) {
    pageInfo { hasNextPage endCursor }
    nodes { ... on PullRequest { ` + itemFields + ` } }
  }
}`

const listIssueCommentsQuery = `query($owner: String!, $name: String!, $number: Int!, $first: Int!, $after: String) {
  repository(owner: $owner, name: $name) {
    issue(number: $number) {
      comments(first: $first, after: $after) {
      ` + commentConnection + `
      }
    }
  }
}`

const listPullRequestCommentsQuery = `query($owner: String!, $name: String!, $number: Int!, $first: Int!, $after: String) {
  repository(owner: $owner, name: $name) {
    pullRequest(number: $number) {
      comments(first: $first, after: $after) {
      ` + commentConnection + `
      }
    }
  }
}`

const getIssueQuery = `query($owner: String!, $name: String!, $number: Int!) {
  repository(owner: $owner, name: $name) {
    issue(number: $number) { ` + itemFields + ` }
  }
}`

const getPullRequestQuery = `query($owner: String!, $name: String!, $number: Int!) {
  repository(owner: $owner, name: $name) {
    pullRequest(number: $number) { ` + itemFields + ` }
  }
}`
